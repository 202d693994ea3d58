package models

import "github.com/Ghodjeezreal/paygate/src/types"

// PassPackage is a prepaid bundle of gate entries for one vehicle type,
// sold at a discount. Packages are seeded by the estate admin and never
// edited after creation.
type PassPackage struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	Name          string `json:"name"`
	Slug          string `gorm:"uniqueIndex" json:"slug,omitempty"`
	Entries       int    `json:"entries"`
	Price         int    `json:"price"`
	Discount      int    `json:"discount"`
	VehicleTypeID uint   `json:"vehicle_type_id"`

	VehicleType VehicleType `json:"vehicle_type,omitempty"`

	types.Timestamps
}

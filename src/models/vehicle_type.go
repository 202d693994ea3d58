package models

// VehicleType is immutable reference data seeded at boot. Fee is a flat
// amount in whole naira.
type VehicleType struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
	Fee  int    `json:"fee"`
}

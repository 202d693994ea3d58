package models

import "github.com/Ghodjeezreal/paygate/src/types"

// PassPurchase is the ledger row for a bought package. RemainingEntries
// starts at the package entry count and only ever decrements, one entry at
// a time, inside the same transaction that creates the backed GoodsEntry.
type PassPurchase struct {
	ID               uint                `gorm:"primarykey" json:"id"`
	Reference        string              `gorm:"uniqueIndex" json:"reference"`
	ResidentName     string              `json:"resident_name"`
	ResidentEmail    string              `json:"resident_email,omitempty"`
	ResidentPhone    string              `json:"resident_phone,omitempty"`
	PassPackageID    uint                `json:"pass_package_id"`
	PaymentStatus    types.PaymentStatus `gorm:"default:'PENDING'" json:"payment_status"`
	RemainingEntries int                 `json:"remaining_entries"`

	PassPackage PassPackage  `json:"pass_package,omitempty"`
	Entries     []GoodsEntry `gorm:"foreignKey:PassPurchaseID" json:"entries,omitempty"`

	types.Timestamps
}

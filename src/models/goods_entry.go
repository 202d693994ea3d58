package models

import (
	"time"

	"github.com/Ghodjeezreal/paygate/src/types"
)

// GoodsEntry is a single gate-entry request, either paid directly or backed
// by a pass purchase. An entry backed by a pass is created already PAID.
// Once PassStatus flips to USED it never returns to VALID.
type GoodsEntry struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	Reference      string              `gorm:"uniqueIndex" json:"reference"`
	ResidentName   string              `json:"resident_name"`
	ResidentEmail  string              `json:"resident_email,omitempty"`
	VendorCompany  string              `json:"vendor_company"`
	Address        string              `json:"address"`
	PlateNumber    string              `json:"plate_number"`
	NatureOfGoods  string              `gorm:"default:'Goods Delivery'" json:"nature_of_goods,omitempty"`
	VehicleTypeID  uint                `json:"vehicle_type_id"`
	PaymentStatus  types.PaymentStatus `gorm:"default:'PENDING'" json:"payment_status"`
	PassStatus     types.PassStatus    `gorm:"default:'VALID'" json:"pass_status"`
	PassPurchaseID *uint               `json:"pass_purchase_id,omitempty"`
	QRCode         *string             `json:"qr_code,omitempty"`
	ExpiresAt      time.Time           `json:"expires_at"`

	VehicleType      VehicleType       `json:"vehicle_type,omitempty"`
	PassPurchase     *PassPurchase     `json:"pass_purchase,omitempty"`
	VerificationLogs []VerificationLog `gorm:"foreignKey:GoodsEntryID;constraint:OnDelete:CASCADE" json:"verification_logs,omitempty"`

	types.Timestamps
}

package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type PaymentStatus string

const (
	PAYMENT_PENDING PaymentStatus = "PENDING"
	PAYMENT_PAID    PaymentStatus = "PAID"
)

type PassStatus string

const (
	PASS_VALID PassStatus = "VALID"
	PASS_USED  PassStatus = "USED"
)

type VerificationStatus string

const (
	VERIFICATION_ALLOWED VerificationStatus = "ALLOWED"
	VERIFICATION_DENIED  VerificationStatus = "DENIED"
)

type Role string

const (
	ROLE_ADMIN    Role = "ADMIN"
	ROLE_SECURITY Role = "SECURITY"
)

type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateGoodsEntryRequestBody struct {
	ResidentName  string `json:"resident_name" binding:"required"`
	ResidentEmail string `json:"resident_email,omitempty" binding:"omitempty,email"`
	VendorCompany string `json:"vendor_company" binding:"required"`
	Address       string `json:"address" binding:"required"`
	PlateNumber   string `json:"plate_number" binding:"required,platenumber"`
	VehicleTypeID uint   `json:"vehicle_type_id" binding:"required"`
	UsePass       bool   `json:"use_pass,omitempty"`
	PassReference string `json:"pass_reference,omitempty"`
}

type VerifyEntryRequestBody struct {
	Reference     string `json:"reference" binding:"required"`
	SecurityAgent string `json:"security_agent,omitempty"`
	PreviewOnly   bool   `json:"preview_only,omitempty"`
	ForceReject   bool   `json:"force_reject,omitempty"`
	RejectionNote string `json:"rejection_note,omitempty"`
}

type PurchasePassRequestBody struct {
	ResidentName  string `json:"resident_name" binding:"required"`
	ResidentEmail string `json:"resident_email" binding:"required,email"`
	ResidentPhone string `json:"resident_phone" binding:"required"`
	PackageID     uint   `json:"package_id" binding:"required"`
}

type VerifyPaymentRequestBody struct {
	Reference string `json:"reference" binding:"required"`
}

type VerifyPassPaymentRequestBody struct {
	Reference         string `json:"reference" binding:"required"`
	ProviderReference string `json:"provider_reference,omitempty"`
}

type PassQueryParams struct {
	Reference string `form:"ref" binding:"required"`
}

type MyPassesQueryParams struct {
	Email string `form:"email"`
	Phone string `form:"phone"`
}

type AdminEntriesQueryParams struct {
	Status      string `form:"status"`
	Search      string `form:"search"`
	VehicleType uint   `form:"vehicle_type"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type ReferenceURIParams struct {
	Reference string `uri:"reference" binding:"required"`
}

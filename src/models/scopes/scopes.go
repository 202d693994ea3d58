package scopes

import (
	"github.com/Ghodjeezreal/paygate/src/types"
	"gorm.io/gorm"
)

func WithReference(ref string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("reference = ?", ref)
	}
}

func WithPaymentStatus(status types.PaymentStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("payment_status = ?", status)
	}
}

func PaidOnly(db *gorm.DB) *gorm.DB {
	return db.Where("payment_status = ?", types.PAYMENT_PAID)
}

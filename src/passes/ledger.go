package passes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPassNotFound        = errors.New("pass not found")
	ErrPaymentIncomplete   = errors.New("pass payment not completed")
	ErrEntriesExhausted    = errors.New("no entries remaining on this pass")
	ErrVehicleTypeMismatch = errors.New("pass is not valid for this vehicle type")
)

// Ledger owns the remaining-entry counter of pass purchases. Every decrement
// happens together with the creation of the gate entry it pays for, inside
// one transaction, so the counter and the entries it backs never drift.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Consume runs inside the caller's transaction. It locks the purchase row,
// checks the preconditions in order (first failure wins) and applies a
// guarded decrement so the counter can never go below zero even if two
// transactions raced to the lock.
func (l *Ledger) Consume(tx *gorm.DB, reference string, vehicleTypeID uint) (*models.PassPurchase, error) {
	var purchase models.PassPurchase
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(&models.PassPurchase{Reference: reference}).
		First(&purchase).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}
	if purchase.PaymentStatus != types.PAYMENT_PAID {
		return nil, ErrPaymentIncomplete
	}
	if purchase.RemainingEntries <= 0 {
		return nil, ErrEntriesExhausted
	}

	var pkg models.PassPackage
	if err := tx.Where(&models.PassPackage{ID: purchase.PassPackageID}).First(&pkg).Error; err != nil {
		return nil, err
	}
	if pkg.VehicleTypeID != vehicleTypeID {
		var vt models.VehicleType
		if err := tx.Where(&models.VehicleType{ID: pkg.VehicleTypeID}).First(&vt).Error; err != nil {
			return nil, ErrVehicleTypeMismatch
		}
		return nil, fmt.Errorf("this pass is only valid for %s: %w", vt.Name, ErrVehicleTypeMismatch)
	}

	res := tx.
		Model(&models.PassPurchase{}).
		Where("id = ? AND remaining_entries > 0", purchase.ID).
		UpdateColumn("remaining_entries", gorm.Expr("remaining_entries - ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrEntriesExhausted
	}

	purchase.RemainingEntries--
	purchase.PassPackage = pkg
	return &purchase, nil
}

// ConsumeForEntry decrements the purchase and creates the backed entry as a
// single unit. The entry comes out already PAID and linked to the purchase.
func (l *Ledger) ConsumeForEntry(ctx context.Context, reference string, entry *models.GoodsEntry) (*models.PassPurchase, error) {
	var purchase *models.PassPurchase
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := l.Consume(tx, reference, entry.VehicleTypeID)
		if err != nil {
			return err
		}
		entry.PaymentStatus = types.PAYMENT_PAID
		entry.PassPurchaseID = &p.ID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

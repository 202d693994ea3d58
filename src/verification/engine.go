package verification

import (
	"context"
	"errors"
	"time"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrAgentRequired = errors.New("security agent name is required")
)

const (
	ReasonPaymentIncomplete = "Payment not completed"
	ReasonExpired           = "Pass has expired"
	ReasonAlreadyUsed       = "Pass already used"
	ReasonManuallyRejected  = "Entry manually rejected by security"

	noteGranted          = "Entry granted"
	defaultRejectionNote = "Manually rejected by security - Wrong vehicle or mismatch"
)

// Request carries one gate scan. PreviewOnly reads without deciding;
// ForceReject overrides every automated check and always denies.
type Request struct {
	Reference     string
	SecurityAgent string
	PreviewOnly   bool
	ForceReject   bool
	RejectionNote string
}

// Verdict is the outcome of a scan. A denial is a verdict, not an error;
// errors are reserved for lookups and storage failures. Log is nil for
// previews.
type Verdict struct {
	Allowed bool
	Preview bool
	Reason  string
	Entry   *models.GoodsEntry
	Log     *models.VerificationLog
}

// Engine decides gate scans. Each decision locks the entry row, evaluates
// the checks in a fixed order (first failure wins) and appends exactly one
// verification log in the same transaction, so the log and the entry status
// can never disagree.
type Engine struct {
	db       *gorm.DB
	now      func() time.Time
	multiUse bool
}

type Option func(*Engine)

// WithClock overrides the expiry clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMultiUse keeps entries reusable: the used check is skipped and an
// allowed scan does not flip the entry to USED.
func WithMultiUse() Option {
	return func(e *Engine) { e.multiUse = true }
}

func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{db: db, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Verify(ctx context.Context, req Request) (*Verdict, error) {
	if req.SecurityAgent == "" {
		return nil, ErrAgentRequired
	}
	if req.PreviewOnly {
		return e.preview(ctx, req.Reference)
	}

	var verdict *Verdict
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.GoodsEntry
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.GoodsEntry{Reference: req.Reference}).
			First(&entry).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if err := tx.Where(&models.VehicleType{ID: entry.VehicleTypeID}).First(&entry.VehicleType).Error; err != nil {
			return err
		}

		if req.ForceReject {
			note := req.RejectionNote
			if note == "" {
				note = defaultRejectionNote
			}
			verdict, err = e.deny(tx, &entry, ReasonManuallyRejected, note, req.SecurityAgent)
			return err
		}
		if entry.PaymentStatus != types.PAYMENT_PAID {
			verdict, err = e.deny(tx, &entry, ReasonPaymentIncomplete, ReasonPaymentIncomplete, req.SecurityAgent)
			return err
		}
		if e.now().After(entry.ExpiresAt) {
			verdict, err = e.deny(tx, &entry, ReasonExpired, ReasonExpired, req.SecurityAgent)
			return err
		}
		if !e.multiUse && entry.PassStatus == types.PASS_USED {
			verdict, err = e.deny(tx, &entry, ReasonAlreadyUsed, ReasonAlreadyUsed, req.SecurityAgent)
			return err
		}

		if !e.multiUse {
			res := tx.
				Model(&models.GoodsEntry{}).
				Where("id = ? AND pass_status = ?", entry.ID, types.PASS_VALID).
				Update("pass_status", types.PASS_USED)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				verdict, err = e.deny(tx, &entry, ReasonAlreadyUsed, ReasonAlreadyUsed, req.SecurityAgent)
				return err
			}
			entry.PassStatus = types.PASS_USED
		}
		vlog, err := e.appendLog(tx, &entry, types.VERIFICATION_ALLOWED, noteGranted, req.SecurityAgent)
		if err != nil {
			return err
		}
		verdict = &Verdict{Allowed: true, Entry: &entry, Log: vlog}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

func (e *Engine) preview(ctx context.Context, reference string) (*Verdict, error) {
	var entry models.GoodsEntry
	err := e.db.WithContext(ctx).
		Where(&models.GoodsEntry{Reference: reference}).
		First(&entry).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if err := e.db.WithContext(ctx).Where(&models.VehicleType{ID: entry.VehicleTypeID}).First(&entry.VehicleType).Error; err != nil {
		return nil, err
	}
	return &Verdict{Preview: true, Entry: &entry}, nil
}

func (e *Engine) deny(tx *gorm.DB, entry *models.GoodsEntry, reason string, note string, agent string) (*Verdict, error) {
	vlog, err := e.appendLog(tx, entry, types.VERIFICATION_DENIED, note, agent)
	if err != nil {
		return nil, err
	}
	return &Verdict{Allowed: false, Reason: reason, Entry: entry, Log: vlog}, nil
}

func (e *Engine) appendLog(tx *gorm.DB, entry *models.GoodsEntry, status types.VerificationStatus, notes string, agent string) (*models.VerificationLog, error) {
	vlog := models.VerificationLog{
		GoodsEntryID:  entry.ID,
		Status:        status,
		Notes:         notes,
		SecurityAgent: agent,
	}
	if err := tx.Create(&vlog).Error; err != nil {
		return nil, err
	}
	return &vlog, nil
}

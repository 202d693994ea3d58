package gate

import (
	"encoding/json"
	"time"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
)

// Snapshot is the point-in-time view of an entry sealed into its scannable
// code at payment confirmation. It is authenticated, not live: PassStatus is
// whatever the entry was when the code was rendered, so an offline terminal
// treats an allowed evaluation as provisional until replayed.
type Snapshot struct {
	ID          uint      `json:"id"`
	Ref         string    `json:"ref"`
	Plate       string    `json:"plate"`
	Resident    string    `json:"resident"`
	Vendor      string    `json:"vendor"`
	Address     string    `json:"address"`
	VehicleType string    `json:"vehicleType"`
	Fee         int       `json:"fee"`
	Status      string    `json:"status"`
	Expires     time.Time `json:"expires"`
	PassStatus  string    `json:"passStatus"`
}

// NewSnapshot captures an entry. VehicleType must be loaded on the entry.
func NewSnapshot(entry *models.GoodsEntry) *Snapshot {
	return &Snapshot{
		ID:          entry.ID,
		Ref:         entry.Reference,
		Plate:       entry.PlateNumber,
		Resident:    entry.ResidentName,
		Vendor:      entry.VendorCompany,
		Address:     entry.Address,
		VehicleType: entry.VehicleType.Name,
		Fee:         entry.VehicleType.Fee,
		Status:      string(entry.PaymentStatus),
		Expires:     entry.ExpiresAt,
		PassStatus:  string(entry.PassStatus),
	}
}

// Seal encrypts and authenticates the snapshot for embedding in a code
// image. Any bit flip in the sealed string makes Open fail.
func Seal(key []byte, s *Snapshot) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return utils.EncryptMessage(key, string(payload))
}

// Open authenticates and decodes a sealed snapshot.
func Open(key []byte, sealed string) (*Snapshot, error) {
	payload, err := utils.DecryptMessage(key, sealed)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(*payload), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EvaluateOffline applies the subset of checks a terminal can decide from
// the snapshot alone: expiry and payment. Used-state lives only on the
// server, so an offline allow is provisional by construction.
func EvaluateOffline(s *Snapshot, now time.Time) (bool, string) {
	if now.After(s.Expires) {
		return false, "Pass has expired"
	}
	if s.Status != string(types.PAYMENT_PAID) {
		return false, "Payment not completed"
	}
	return true, ""
}

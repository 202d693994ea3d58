package models

import (
	"time"

	"github.com/Ghodjeezreal/paygate/src/types"
)

// VerificationLog is the append-only audit trail of gate decisions. Rows are
// inserted in the same transaction as the decision they record and are never
// updated or deleted. SecurityAgent is stored as free text so a verification
// burst keeps working even when the auth backend is unreachable.
type VerificationLog struct {
	ID            uint                     `gorm:"primarykey" json:"id"`
	GoodsEntryID  uint                     `json:"goods_entry_id"`
	Status        types.VerificationStatus `json:"status"`
	Notes         string                   `json:"notes,omitempty"`
	SecurityAgent string                   `json:"security_agent"`
	VerifiedAt    time.Time                `gorm:"autoCreateTime" json:"verified_at"`

	GoodsEntry GoodsEntry `json:"goods_entry,omitempty"`
}

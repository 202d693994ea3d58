package gate

import (
	"context"
	"time"
)

// Terminal ties together the pieces a gate post runs locally: the sealed
// snapshot key, the pending queue, the credential cache and the liveness
// prober.
type Terminal struct {
	ID     string
	Key    []byte
	Queue  *PendingQueue
	Creds  *CredentialCache
	Prober *Prober
}

// Scan opens a sealed code. Tampered or foreign codes fail here.
func (t *Terminal) Scan(code string) (*Snapshot, error) {
	return Open(t.Key, code)
}

// ApproveOffline evaluates a scan with the offline checks and, when allowed,
// queues it for replay. The denial reason comes back as a string because an
// offline denial is a decision, not a failure.
func (t *Terminal) ApproveOffline(ctx context.Context, snap *Snapshot, agent string, now time.Time) (bool, string, error) {
	ok, reason := EvaluateOffline(snap, now)
	if !ok {
		return false, reason, nil
	}
	if _, err := t.Queue.Append(ctx, Approval{
		Reference:     snap.Ref,
		SecurityAgent: agent,
		Timestamp:     now,
		Plate:         snap.Plate,
		TerminalID:    t.ID,
	}); err != nil {
		return false, "", err
	}
	return true, "", nil
}

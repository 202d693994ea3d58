package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Divergence records an offline approval the server refused on replay. The
// vehicle already passed the gate, so these are surfaced for review rather
// than silently dropped.
type Divergence struct {
	Approval Approval `json:"approval"`
	Reason   string   `json:"reason"`
}

// FlushReport summarizes one replay run.
type FlushReport struct {
	Replayed int          `json:"replayed"`
	Diverged []Divergence `json:"diverged,omitempty"`
}

// Reconciler replays queued offline approvals against the authoritative
// verify endpoint, one at a time in arrival order. The server verdict always
// wins; the terminal never marks an entry used on its own.
type Reconciler struct {
	queue     *PendingQueue
	serverURL string
	token     string
	client    *http.Client
}

func NewReconciler(queue *PendingQueue, serverURL string, token string) *Reconciler {
	return &Reconciler{
		queue:     queue,
		serverURL: serverURL,
		token:     token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Flush replays everything currently queued. A transport failure stops the
// run and keeps the unreplayed remainder queued for the next flush; already
// replayed approvals are acknowledged either way. Each approval is marked
// replayed the moment its POST lands, so an approval left queued by a failed
// Ack is skipped on the next flush instead of hitting the server twice.
func (r *Reconciler) Flush(ctx context.Context) (*FlushReport, error) {
	approvals, err := r.queue.Pending(ctx)
	if err != nil {
		return nil, err
	}
	report := &FlushReport{}
	acked := make([]Approval, 0, len(approvals))
	ackHandled := func() {
		if ackErr := r.queue.Ack(ctx, acked); ackErr != nil {
			log.Printf("[reconcile] Error trimming replayed approvals: %s\n", ackErr.Error())
		}
	}
	for _, a := range approvals {
		done, err := r.queue.AlreadyReplayed(ctx, a)
		if err != nil {
			ackHandled()
			return report, err
		}
		if done {
			log.Printf("[reconcile] Skipping %s, already replayed on an earlier flush\n", a.Reference)
			acked = append(acked, a)
			continue
		}
		allowed, reason, err := r.replay(ctx, a)
		if err != nil {
			ackHandled()
			return report, err
		}
		if err := r.queue.MarkReplayed(ctx, a); err != nil {
			ackHandled()
			return report, err
		}
		acked = append(acked, a)
		report.Replayed++
		if !allowed {
			log.Printf("[reconcile] Offline approval for %s diverged: %s\n", a.Reference, reason)
			report.Diverged = append(report.Diverged, Divergence{Approval: a, Reason: reason})
		}
	}
	if err := r.queue.Ack(ctx, acked); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) replay(ctx context.Context, a Approval) (bool, string, error) {
	payload, err := json.Marshal(map[string]any{
		"reference":      a.Reference,
		"security_agent": a.SecurityAgent,
		"rejection_note": fmt.Sprintf("Synced offline approval from %s", a.Timestamp.UTC().Format(time.RFC3339)),
	})
	if err != nil {
		return false, "", err
	}
	url := fmt.Sprintf("%s/api/v1/verify-entry", r.serverURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.token))

	res, err := r.client.Do(req)
	if err != nil {
		return false, "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, "", err
	}
	switch res.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		allowed := gjson.GetBytes(body, "allowed").Bool()
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" && !allowed {
			reason = gjson.GetBytes(body, "error").String()
		}
		return allowed, reason, nil
	default:
		return false, "", fmt.Errorf("verify-entry replay returned status %d", res.StatusCode)
	}
}

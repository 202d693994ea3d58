package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKey  = "gate:pending"
	seenKey     = "gate:pending:seen"
	replayedKey = "gate:replayed"
)

// Approval is one offline allow awaiting replay against the server.
type Approval struct {
	Reference     string    `json:"reference"`
	SecurityAgent string    `json:"security_agent"`
	Timestamp     time.Time `json:"timestamp"`
	Plate         string    `json:"plate"`
	TerminalID    string    `json:"terminal_id,omitempty"`
}

func (a Approval) dedupeKey() string {
	return fmt.Sprintf("%s@%s", a.Reference, a.Timestamp.UTC().Format(time.RFC3339))
}

// PendingQueue persists offline approvals in arrival order so they survive a
// terminal restart. Duplicates of the same scan (reference plus timestamp)
// are dropped on append.
type PendingQueue struct {
	rdb *redis.Client
}

func NewPendingQueue(rdb *redis.Client) *PendingQueue {
	return &PendingQueue{rdb: rdb}
}

// Append queues an approval. Returns false when the same scan was already
// queued.
func (q *PendingQueue) Append(ctx context.Context, a Approval) (bool, error) {
	added, err := q.rdb.SAdd(ctx, seenKey, a.dedupeKey()).Result()
	if err != nil {
		return false, err
	}
	if added == 0 {
		return false, nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	if err := q.rdb.RPush(ctx, pendingKey, string(payload)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Pending returns all queued approvals, oldest first.
func (q *PendingQueue) Pending(ctx context.Context) ([]Approval, error) {
	items, err := q.rdb.LRange(ctx, pendingKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	approvals := make([]Approval, 0, len(items))
	for _, item := range items {
		var a Approval
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}

// MarkReplayed records that an approval's replay reached the server. The
// mark is written before the queue entry is trimmed so a crash between the
// two steps cannot cause a second POST for the same scan.
func (q *PendingQueue) MarkReplayed(ctx context.Context, a Approval) error {
	return q.rdb.SAdd(ctx, replayedKey, a.dedupeKey()).Err()
}

// AlreadyReplayed reports whether an approval's replay reached the server
// on an earlier flush.
func (q *PendingQueue) AlreadyReplayed(ctx context.Context, a Approval) (bool, error) {
	return q.rdb.SIsMember(ctx, replayedKey, a.dedupeKey()).Result()
}

// Ack drops the given leading approvals after a successful replay and
// forgets their dedupe marks, keeping the rest for the next flush.
func (q *PendingQueue) Ack(ctx context.Context, replayed []Approval) error {
	if len(replayed) == 0 {
		return nil
	}
	if err := q.rdb.LTrim(ctx, pendingKey, int64(len(replayed)), -1).Err(); err != nil {
		return err
	}
	keys := make([]interface{}, 0, len(replayed))
	for _, a := range replayed {
		keys = append(keys, a.dedupeKey())
	}
	if err := q.rdb.SRem(ctx, seenKey, keys...).Err(); err != nil {
		return err
	}
	return q.rdb.SRem(ctx, replayedKey, keys...).Err()
}

func (q *PendingQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, pendingKey).Result()
}

package gate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApproval() Approval {
	return Approval{
		Reference:     "VGC7654321",
		SecurityAgent: "security1",
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Plate:         "ABC-123-DE",
	}
}

func TestQueueAppend(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewPendingQueue(rdb)
	a := testApproval()
	payload, err := json.Marshal(a)
	require.NoError(t, err)

	mock.ExpectSAdd(seenKey, "VGC7654321@2025-06-01T12:00:00Z").SetVal(1)
	mock.ExpectRPush(pendingKey, string(payload)).SetVal(1)

	queued, err := q.Append(context.Background(), a)
	assert.NoError(t, err)
	assert.True(t, queued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueAppendDropsDuplicateScan(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewPendingQueue(rdb)

	mock.ExpectSAdd(seenKey, "VGC7654321@2025-06-01T12:00:00Z").SetVal(0)

	queued, err := q.Append(context.Background(), testApproval())
	assert.NoError(t, err)
	assert.False(t, queued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueuePendingPreservesOrder(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewPendingQueue(rdb)

	first := testApproval()
	second := testApproval()
	second.Reference = "VGC1111111"
	second.Timestamp = first.Timestamp.Add(time.Minute)
	firstPayload, err := json.Marshal(first)
	require.NoError(t, err)
	secondPayload, err := json.Marshal(second)
	require.NoError(t, err)

	mock.ExpectLRange(pendingKey, 0, -1).SetVal([]string{string(firstPayload), string(secondPayload)})

	approvals, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, "VGC7654321", approvals[0].Reference)
	assert.Equal(t, "VGC1111111", approvals[1].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueAck(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewPendingQueue(rdb)

	first := testApproval()
	second := testApproval()
	second.Reference = "VGC1111111"
	second.Timestamp = first.Timestamp.Add(time.Minute)

	mock.ExpectLTrim(pendingKey, 2, -1).SetVal("OK")
	mock.ExpectSRem(seenKey, "VGC7654321@2025-06-01T12:00:00Z", "VGC1111111@2025-06-01T12:01:00Z").SetVal(2)
	mock.ExpectSRem(replayedKey, "VGC7654321@2025-06-01T12:00:00Z", "VGC1111111@2025-06-01T12:01:00Z").SetVal(2)

	assert.NoError(t, q.Ack(context.Background(), []Approval{first, second}))
	assert.NoError(t, q.Ack(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueReplayMarks(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewPendingQueue(rdb)
	a := testApproval()

	mock.ExpectSIsMember(replayedKey, "VGC7654321@2025-06-01T12:00:00Z").SetVal(false)
	mock.ExpectSAdd(replayedKey, "VGC7654321@2025-06-01T12:00:00Z").SetVal(1)
	mock.ExpectSIsMember(replayedKey, "VGC7654321@2025-06-01T12:00:00Z").SetVal(true)

	done, err := q.AlreadyReplayed(context.Background(), a)
	assert.NoError(t, err)
	assert.False(t, done)
	assert.NoError(t, q.MarkReplayed(context.Background(), a))
	done, err = q.AlreadyReplayed(context.Background(), a)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func queuedPayloads(t *testing.T, approvals ...Approval) []string {
	t.Helper()
	payloads := make([]string, 0, len(approvals))
	for _, a := range approvals {
		payload, err := json.Marshal(a)
		require.NoError(t, err)
		payloads = append(payloads, string(payload))
	}
	return payloads
}

func TestFlushSurfacesDivergence(t *testing.T) {
	first := testApproval()
	second := testApproval()
	second.Timestamp = first.Timestamp.Add(time.Minute)

	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/verify-entry", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body["reference"].(string))
		w.Header().Set("Content-Type", "application/json")
		if len(requests) == 1 {
			w.Write([]byte(`{"allowed": true, "entry": {"reference": "VGC7654321"}}`))
			return
		}
		w.Write([]byte(`{"allowed": false, "reason": "Pass already used"}`))
	}))
	defer srv.Close()

	firstKey := "VGC7654321@2025-06-01T12:00:00Z"
	secondKey := "VGC7654321@2025-06-01T12:01:00Z"
	rdb, mock := redismock.NewClientMock()
	mock.ExpectLRange(pendingKey, 0, -1).SetVal(queuedPayloads(t, first, second))
	mock.ExpectSIsMember(replayedKey, firstKey).SetVal(false)
	mock.ExpectSAdd(replayedKey, firstKey).SetVal(1)
	mock.ExpectSIsMember(replayedKey, secondKey).SetVal(false)
	mock.ExpectSAdd(replayedKey, secondKey).SetVal(1)
	mock.ExpectLTrim(pendingKey, 2, -1).SetVal("OK")
	mock.ExpectSRem(seenKey, firstKey, secondKey).SetVal(2)
	mock.ExpectSRem(replayedKey, firstKey, secondKey).SetVal(2)

	r := NewReconciler(NewPendingQueue(rdb), srv.URL, "test-token")
	report, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Replayed)
	require.Len(t, report.Diverged, 1)
	assert.Equal(t, "Pass already used", report.Diverged[0].Reason)
	assert.Len(t, requests, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushKeepsRemainderOnTransportFailure(t *testing.T) {
	first := testApproval()
	second := testApproval()
	second.Timestamp = first.Timestamp.Add(time.Minute)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"allowed": true}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	firstKey := "VGC7654321@2025-06-01T12:00:00Z"
	rdb, mock := redismock.NewClientMock()
	mock.ExpectLRange(pendingKey, 0, -1).SetVal(queuedPayloads(t, first, second))
	mock.ExpectSIsMember(replayedKey, firstKey).SetVal(false)
	mock.ExpectSAdd(replayedKey, firstKey).SetVal(1)
	mock.ExpectSIsMember(replayedKey, "VGC7654321@2025-06-01T12:01:00Z").SetVal(false)
	mock.ExpectLTrim(pendingKey, 1, -1).SetVal("OK")
	mock.ExpectSRem(seenKey, firstKey).SetVal(1)
	mock.ExpectSRem(replayedKey, firstKey).SetVal(1)

	r := NewReconciler(NewPendingQueue(rdb), srv.URL, "test-token")
	report, err := r.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, report.Replayed)
	assert.Empty(t, report.Diverged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushTreatsNotFoundAsDivergence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"allowed": false, "error": "Entry not found"}`))
	}))
	defer srv.Close()

	key := "VGC7654321@2025-06-01T12:00:00Z"
	rdb, mock := redismock.NewClientMock()
	mock.ExpectLRange(pendingKey, 0, -1).SetVal(queuedPayloads(t, testApproval()))
	mock.ExpectSIsMember(replayedKey, key).SetVal(false)
	mock.ExpectSAdd(replayedKey, key).SetVal(1)
	mock.ExpectLTrim(pendingKey, 1, -1).SetVal("OK")
	mock.ExpectSRem(seenKey, key).SetVal(1)
	mock.ExpectSRem(replayedKey, key).SetVal(1)

	r := NewReconciler(NewPendingQueue(rdb), srv.URL, "test-token")
	report, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replayed)
	require.Len(t, report.Diverged, 1)
	assert.Equal(t, "Entry not found", report.Diverged[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushSkipsApprovalsReplayedOnEarlierRun(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"allowed": true}`))
	}))
	defer srv.Close()

	// Still queued because a previous flush replayed it but failed to trim.
	key := "VGC7654321@2025-06-01T12:00:00Z"
	rdb, mock := redismock.NewClientMock()
	mock.ExpectLRange(pendingKey, 0, -1).SetVal(queuedPayloads(t, testApproval()))
	mock.ExpectSIsMember(replayedKey, key).SetVal(true)
	mock.ExpectLTrim(pendingKey, 1, -1).SetVal("OK")
	mock.ExpectSRem(seenKey, key).SetVal(1)
	mock.ExpectSRem(replayedKey, key).SetVal(1)

	r := NewReconciler(NewPendingQueue(rdb), srv.URL, "test-token")
	report, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Replayed)
	assert.Empty(t, report.Diverged)
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushReportSerializes(t *testing.T) {
	report := &FlushReport{
		Replayed: 3,
		Diverged: []Divergence{{Approval: testApproval(), Reason: "Pass already used"}},
	}
	payload, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(payload, "replayed").Int())
	assert.Equal(t, "Pass already used", gjson.GetBytes(payload, "diverged.0.reason").String())
}

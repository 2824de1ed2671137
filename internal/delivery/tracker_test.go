package delivery

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordSentThenQuery(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.RecordSent("wamid.1", "33600000001")

	record, err := tracker.Query("wamid.1")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, record.Status)
	assert.Equal(t, "33600000001", record.RecipientID)
	assert.False(t, record.LastUpdated.IsZero())
}

func TestApplyStatusUpdatePreservesRecipient(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.RecordSent("wamid.1", "33600000001")

	first, err := tracker.Query("wamid.1")
	require.NoError(t, err)

	at := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	tracker.ApplyStatusUpdate(StatusUpdate{MessageID: "wamid.1", Status: StatusDelivered, Timestamp: at})

	record, err := tracker.Query("wamid.1")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, record.Status)
	assert.Equal(t, first.RecipientID, record.RecipientID)
	assert.Equal(t, at, record.LastUpdated)
}

func TestApplyStatusUpdateUnknownIDDropped(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.ApplyStatusUpdate(StatusUpdate{MessageID: "wamid.ghost", Status: StatusDelivered})

	_, err := tracker.Query("wamid.ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyStatusUpdateRecordsFailureDetails(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.RecordSent("wamid.1", "33600000001")

	tracker.ApplyStatusUpdate(StatusUpdate{
		MessageID:    "wamid.1",
		Status:       StatusFailed,
		ErrorCode:    "131047",
		ErrorMessage: "Re-engagement message",
	})

	record, err := tracker.Query("wamid.1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, "131047", record.ErrorCode)
	assert.Equal(t, "Re-engagement message", record.ErrorMessage)
}

func TestQueryAll(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.RecordSent("wamid.1", "a")
	tracker.RecordSent("wamid.2", "b")

	records := tracker.QueryAll()
	assert.Len(t, records, 2)
}

func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	tracker := NewTracker(zap.NewNop())
	tracker.RecordSent("wamid.1", "a")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.ApplyStatusUpdate(StatusUpdate{MessageID: "wamid.1", Status: StatusDelivered})
		}()
	}
	wg.Wait()

	record, err := tracker.Query("wamid.1")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, record.Status)
	assert.Equal(t, "a", record.RecipientID)
}

func TestNormalizeStatusBucketsUnknownValues(t *testing.T) {
	for _, status := range []string{StatusSent, StatusDelivered, StatusRead, StatusFailed} {
		assert.Equal(t, status, NormalizeStatus(status))
	}
	assert.Equal(t, "other", NormalizeStatus("queued"))
	assert.Equal(t, "other", NormalizeStatus("Delivered"))
	assert.Equal(t, "other", NormalizeStatus(""))
}

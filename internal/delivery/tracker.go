// Package delivery tracks provider delivery-status callbacks for dispatched
// messages. The store is in-memory only; a restart loses all tracked status.
package delivery

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Statuses reported by the provider.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("unknown message id")

// NormalizeStatus collapses statuses outside the known set into "other".
// Provider payloads are attacker-influenced, so anything keyed by status
// downstream stays bounded. Records keep the raw value.
func NormalizeStatus(status string) string {
	switch status {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return status
	default:
		return "other"
	}
}

// Record is the tracked state of one dispatched message.
type Record struct {
	MessageID    string    `json:"message_id"`
	RecipientID  string    `json:"recipient_id"`
	Status       string    `json:"status"`
	LastUpdated  time.Time `json:"last_updated"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Tracker is an owned, injected store instance. Updates are last-write-wins
// in arrival order; this is a diagnostic aid, not a source of truth.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
	log     *zap.Logger
	now     func() time.Time
}

func NewTracker(log *zap.Logger) *Tracker {
	return &Tracker{
		records: make(map[string]Record),
		log:     log.Named("delivery.tracker"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordSent inserts a fresh entry in status "sent".
func (t *Tracker) RecordSent(messageID, recipientID string) {
	if messageID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[messageID] = Record{
		MessageID:   messageID,
		RecipientID: recipientID,
		Status:      StatusSent,
		LastUpdated: t.now(),
	}
}

// ApplyStatusUpdate overwrites status and lastUpdated, preserving the
// recipient. Updates for unknown ids are logged and dropped.
func (t *Tracker) ApplyStatusUpdate(update StatusUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[update.MessageID]
	if !ok {
		t.log.Warn("status update for unknown message id",
			zap.String("message_id", update.MessageID),
			zap.String("status", update.Status),
		)
		return
	}

	record.Status = update.Status
	record.LastUpdated = update.Timestamp
	if record.LastUpdated.IsZero() {
		record.LastUpdated = t.now()
	}
	record.ErrorCode = update.ErrorCode
	record.ErrorMessage = update.ErrorMessage
	t.records[update.MessageID] = record
}

// Query returns the current record for a message id.
func (t *Tracker) Query(messageID string) (Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.records[messageID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// QueryAll returns every tracked record, in no particular order.
func (t *Tracker) QueryAll() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, 0, len(t.records))
	for _, record := range t.records {
		out = append(out, record)
	}
	return out
}

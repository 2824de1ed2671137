package delivery

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// StatusUpdate is one delivery-status command extracted from a webhook push.
type StatusUpdate struct {
	MessageID    string
	Status       string
	Timestamp    time.Time
	ErrorCode    string
	ErrorMessage string
}

// VerifyHandshake implements the webhook subscription handshake: when the
// mode is "subscribe" and the token matches the configured secret, the
// challenge is echoed back verbatim.
func VerifyHandshake(mode, token, challenge, secret string) (string, bool) {
	if mode != "subscribe" || secret == "" || token != secret {
		return "", false
	}
	return challenge, true
}

// Provider webhook payload, WhatsApp Business Cloud API shape.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					Timestamp   string `json:"timestamp"`
					RecipientID string `json:"recipient_id"`
					Errors      []struct {
						Code  int    `json:"code"`
						Title string `json:"title"`
					} `json:"errors"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseStatusUpdates extracts status-update commands from a webhook push.
// Payloads without status entries (e.g. inbound messages) yield an empty
// slice, not an error.
func ParseStatusUpdates(body []byte) ([]StatusUpdate, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrMalformedPayload
	}

	var updates []StatusUpdate
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				if status.ID == "" || status.Status == "" {
					continue
				}
				update := StatusUpdate{
					MessageID: status.ID,
					Status:    status.Status,
					Timestamp: parseEpoch(status.Timestamp),
				}
				if len(status.Errors) > 0 {
					update.ErrorCode = strconv.Itoa(status.Errors[0].Code)
					update.ErrorMessage = status.Errors[0].Title
				}
				updates = append(updates, update)
			}
		}
	}
	return updates, nil
}

func parseEpoch(raw string) time.Time {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}

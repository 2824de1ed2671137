package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyHandshake(t *testing.T) {
	challenge, ok := VerifyHandshake("subscribe", "secret-token", "1158201444", "secret-token")
	require.True(t, ok)
	assert.Equal(t, "1158201444", challenge)

	_, ok = VerifyHandshake("subscribe", "wrong", "1158201444", "secret-token")
	assert.False(t, ok)

	_, ok = VerifyHandshake("unsubscribe", "secret-token", "1158201444", "secret-token")
	assert.False(t, ok)

	// An empty configured secret never verifies.
	_, ok = VerifyHandshake("subscribe", "", "1158201444", "")
	assert.False(t, ok)
}

func TestParseStatusUpdates(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"statuses": [{
						"id": "wamid.abc",
						"status": "delivered",
						"timestamp": "1772712000",
						"recipient_id": "33600000001"
					}]
				}
			}]
		}]
	}`)

	updates, err := ParseStatusUpdates(body)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "wamid.abc", updates[0].MessageID)
	assert.Equal(t, "delivered", updates[0].Status)
	assert.Equal(t, time.Unix(1772712000, 0).UTC(), updates[0].Timestamp)
}

func TestParseStatusUpdatesWithErrors(t *testing.T) {
	body := []byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"statuses": [{
						"id": "wamid.abc",
						"status": "failed",
						"timestamp": "1772712000",
						"errors": [{"code": 131047, "title": "Re-engagement message"}]
					}]
				}
			}]
		}]
	}`)

	updates, err := ParseStatusUpdates(body)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "131047", updates[0].ErrorCode)
	assert.Equal(t, "Re-engagement message", updates[0].ErrorMessage)
}

func TestParseStatusUpdatesIgnoresNonStatusPayloads(t *testing.T) {
	updates, err := ParseStatusUpdates([]byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{}}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestParseStatusUpdatesMalformed(t *testing.T) {
	_, err := ParseStatusUpdates([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

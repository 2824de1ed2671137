package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.WhatsAppConfig{
		APIBaseURL:        server.URL,
		AccessToken:       "test-token",
		PhoneNumberID:     "123456789",
		TemplateLanguage:  "fr",
		RequestTimeoutSec: 2,
	}
	return NewProvider(zap.NewNop(), cfg, server.Client())
}

func TestSendTemplateSuccess(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/123456789/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.test.001"}]}`))
	})

	id, err := provider.SendTemplate(context.Background(), "33600000001", "invoice", "fr",
		[]string{"Jean Martin", "March 2026", "450.00 EUR", "2026-03-05", "https://app.example.com/tenants"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.test.001", id)

	assert.Equal(t, "whatsapp", captured["messaging_product"])
	assert.Equal(t, "33600000001", captured["to"])
	assert.Equal(t, "template", captured["type"])

	tmpl := captured["template"].(map[string]any)
	assert.Equal(t, "invoice", tmpl["name"])
	assert.Equal(t, "fr", tmpl["language"].(map[string]any)["code"])

	components := tmpl["components"].([]any)
	require.Len(t, components, 1)
	params := components[0].(map[string]any)["parameters"].([]any)
	require.Len(t, params, 5)
	assert.Equal(t, "450.00 EUR", params[2].(map[string]any)["text"])
}

func TestSendTextSuccess(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "text", req["type"])
		assert.Equal(t, "hello there", req["text"].(map[string]any)["body"])

		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.test.002"}]}`))
	})

	id, err := provider.SendText(context.Background(), "33600000001", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "wamid.test.002", id)
}

func TestSendTemplateAPIError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"template not found","code":132001}}`))
	})

	_, err := provider.SendTemplate(context.Background(), "33600000001", "missing", "fr", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
	assert.Contains(t, err.Error(), "132001")
}

func TestSendTextServerError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := provider.SendText(context.Background(), "33600000001", "body")
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
}

func TestSendResponseMissingMessageID(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[]}`))
	})

	_, err := provider.SendText(context.Background(), "33600000001", "body")
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
}

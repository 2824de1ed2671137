package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/delivery"
	"github.com/rentstack/rentstack/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessenger struct {
	mu            sync.Mutex
	templateErr   error
	textErr       error
	templateCalls []string
	textCalls     []string
	nextID        int
}

func (f *fakeMessenger) SendTemplate(ctx context.Context, phone, template, language string, params []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateCalls = append(f.templateCalls, phone)
	if f.templateErr != nil {
		return "", f.templateErr
	}
	f.nextID++
	return fmt.Sprintf("wamid.template.%d", f.nextID), nil
}

func (f *fakeMessenger) SendText(ctx context.Context, phone, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls = append(f.textCalls, phone)
	if f.textErr != nil {
		return "", f.textErr
	}
	f.nextID++
	return fmt.Sprintf("wamid.text.%d", f.nextID), nil
}

func newTestDispatcher(t *testing.T, messenger domain.Messenger) (*Dispatcher, *delivery.Tracker) {
	t.Helper()

	tracker := delivery.NewTracker(zap.NewNop())
	cfg := config.Config{
		WhatsApp: config.WhatsAppConfig{
			TemplateLanguage:  "en",
			RequestTimeoutSec: 2,
		},
	}
	d := NewDispatcher(Params{
		Log:       zap.NewNop(),
		Cfg:       cfg,
		Messenger: messenger,
		Tracker:   tracker,
	})
	return d, tracker
}

func testPayload() (domain.OutboundMessage, domain.Payload) {
	msg := domain.OutboundMessage{
		Type:   domain.TypeInvoice,
		Tenant: domain.Recipient{Name: "Marie Dupont", Phones: []string{"+33 6 00 00 00 01"}},
	}
	payload := domain.Payload{
		Type:   domain.TypeInvoice,
		Params: []string{"Marie Dupont", "March 2026", "400.00 EUR", "2026-03-05", "https://app.rentstack.io/i/1"},
	}
	return msg, payload
}

func TestDispatchTemplateSuccess(t *testing.T) {
	messenger := &fakeMessenger{}
	d, tracker := newTestDispatcher(t, messenger)
	msg, payload := testPayload()

	result, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, domain.ViaAPITemplate, result.Outcomes[0].Via)
	assert.Equal(t, 1, result.APISuccesses)
	assert.Equal(t, 0, result.LinkFallback)
	// Text fallback never invoked after a template success.
	assert.Empty(t, messenger.textCalls)

	record, err := tracker.Query(result.Outcomes[0].MessageID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusSent, record.Status)
}

func TestDispatchFallsBackToTextOnTemplateFailure(t *testing.T) {
	messenger := &fakeMessenger{templateErr: errors.New("template not approved")}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()

	result, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, domain.ViaAPIText, result.Outcomes[0].Via)
	assert.Len(t, messenger.templateCalls, 1)
	assert.Len(t, messenger.textCalls, 1)
	assert.Empty(t, result.Outcomes[0].DeepLink)
}

func TestDispatchDeepLinkWhenBothAPIAttemptsFail(t *testing.T) {
	messenger := &fakeMessenger{
		templateErr: errors.New("template not approved"),
		textErr:     errors.New("auth error"),
	}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()

	result, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	assert.Equal(t, domain.ViaClientLink, outcome.Via)
	assert.Equal(t, 1, result.LinkFallback)
	assert.True(t, strings.HasPrefix(outcome.DeepLink, "https://wa.me/33600000001?text="), outcome.DeepLink)
	assert.NotContains(t, outcome.DeepLink, "+")
	assert.NotContains(t, outcome.DeepLink, " ")
}

func TestDispatchFanOutIndependentRecipients(t *testing.T) {
	messenger := &fakeMessenger{}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()
	msg.Tenant.Phones = []string{"+33 6 00 00 00 01", "+33 6 00 00 00 02", "+33600000002"}

	result, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)

	// Duplicate numbers collapse after normalization.
	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, result.APISuccesses)
}

func TestDispatchNoUsablePhones(t *testing.T) {
	messenger := &fakeMessenger{}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()
	msg.Tenant.Phones = []string{"", "---"}

	_, err := d.Dispatch(context.Background(), msg, payload)
	assert.ErrorIs(t, err, domain.ErrMissingRecipient)
}

func TestDispatchUsesConfiguredTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "messaging.yml"), []byte("whatsapp:\n  templates:\n    invoice: invoice_v2\n"), 0o600)
	require.NoError(t, err)
	holder, err := config.NewTemplateHolder(dir)
	require.NoError(t, err)

	messenger := &recordingMessenger{}
	d := NewDispatcher(Params{
		Log:       zap.NewNop(),
		Cfg:       config.Config{WhatsApp: config.WhatsAppConfig{TemplateLanguage: "en", RequestTimeoutSec: 2}},
		Templates: holder,
		Messenger: messenger,
		Tracker:   delivery.NewTracker(zap.NewNop()),
	})
	msg, payload := testPayload()

	_, err = d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)
	assert.Equal(t, "invoice_v2", messenger.lastTemplate)
}

func TestDispatchTemplateWithoutOverrideKeepsTypeName(t *testing.T) {
	messenger := &recordingMessenger{}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()

	_, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)
	assert.Equal(t, "invoice", messenger.lastTemplate)
}

func TestDispatchLanguageFollowsMessageLocale(t *testing.T) {
	messenger := &recordingMessenger{}
	d, _ := newTestDispatcher(t, messenger)
	msg, payload := testPayload()
	msg.Locale = "fr-FR"

	_, err := d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)
	assert.Equal(t, "fr_FR", messenger.lastLanguage)

	// No locale on the message falls back to the configured default.
	msg.Locale = ""
	_, err = d.Dispatch(context.Background(), msg, payload)
	require.NoError(t, err)
	assert.Equal(t, "en", messenger.lastLanguage)
}

func TestDeepLinkEncoding(t *testing.T) {
	link := DeepLink("+33 6 00 00 00 01", "Hello Marie, 400.00 EUR due")
	assert.Equal(t, "https://wa.me/33600000001?text=Hello+Marie%2C+400.00+EUR+due", link)
}

type recordingMessenger struct {
	mu           sync.Mutex
	lastTemplate string
	lastLanguage string
}

func (r *recordingMessenger) SendTemplate(ctx context.Context, phone, template, language string, params []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastTemplate = template
	r.lastLanguage = language
	return "wamid.1", nil
}

func (r *recordingMessenger) SendText(ctx context.Context, phone, body string) (string, error) {
	return "wamid.2", nil
}

func TestDispatchTimeoutConfigured(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeMessenger{})
	assert.Equal(t, 2*time.Second, d.timeout)
}

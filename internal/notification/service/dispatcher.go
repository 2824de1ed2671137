package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/delivery"
	"github.com/rentstack/rentstack/internal/notification/domain"
	obsmetrics "github.com/rentstack/rentstack/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Templates *config.TemplateHolder `optional:"true"`
	Messenger domain.Messenger
	Tracker   *delivery.Tracker
	Metrics   *obsmetrics.DispatchMetrics `optional:"true"`
}

// Dispatcher delivers one message to each recipient phone number through an
// ordered fallback chain: templated API call, then free-text API call, then a
// wa.me deep link handed back to the caller. The chain is terminal on first
// success; the deep link always succeeds.
type Dispatcher struct {
	log       *zap.Logger
	cfg       config.WhatsAppConfig
	templates *config.TemplateHolder
	messenger domain.Messenger
	tracker   *delivery.Tracker
	metrics   *obsmetrics.DispatchMetrics
	timeout   time.Duration
}

func NewDispatcher(p Params) *Dispatcher {
	timeout := time.Duration(p.Cfg.WhatsApp.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		log:       p.Log.Named("notification.dispatcher"),
		cfg:       p.Cfg.WhatsApp,
		templates: p.Templates,
		messenger: p.Messenger,
		tracker:   p.Tracker,
		metrics:   p.Metrics,
		timeout:   timeout,
	}
}

// Dispatch fans the payload out to every recipient phone number. Recipients
// run independently; one recipient's failure never aborts the others.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.OutboundMessage, payload domain.Payload) (*domain.DispatchResult, error) {
	phones := normalizePhones(msg.Tenant.Phones)
	if len(phones) == 0 {
		return nil, domain.ErrMissingRecipient
	}

	result := &domain.DispatchResult{Type: payload.Type}
	outcomes := make([]domain.RecipientOutcome, len(phones))
	language := d.templateLanguage(msg.Locale)

	var wg sync.WaitGroup
	for i, phone := range phones {
		wg.Add(1)
		go func(i int, phone string) {
			defer wg.Done()
			outcomes[i] = d.dispatchOne(ctx, phone, language, payload)
		}(i, phone)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Via == domain.ViaClientLink {
			result.LinkFallback++
		} else {
			result.APISuccesses++
		}
		d.metrics.RecordOutcome(string(payload.Type), outcome.Via)
	}
	return result, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, phone, language string, payload domain.Payload) domain.RecipientOutcome {
	template := d.templateName(payload.Type)

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	messageID, err := d.messenger.SendTemplate(sendCtx, phone, template, language, payload.Params)
	cancel()
	if err == nil {
		d.tracker.RecordSent(messageID, phone)
		return domain.RecipientOutcome{Phone: phone, Via: domain.ViaAPITemplate, MessageID: messageID}
	}
	d.log.Warn("template send failed, falling back to text",
		zap.String("phone", phone),
		zap.String("template", template),
		zap.Error(err),
	)

	body := plainTextBody(payload)
	sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
	messageID, err = d.messenger.SendText(sendCtx, phone, body)
	cancel()
	if err == nil {
		d.tracker.RecordSent(messageID, phone)
		return domain.RecipientOutcome{Phone: phone, Via: domain.ViaAPIText, MessageID: messageID}
	}
	d.log.Warn("text send failed, falling back to deep link",
		zap.String("phone", phone),
		zap.Error(err),
	)

	return domain.RecipientOutcome{
		Phone:    phone,
		Via:      domain.ViaClientLink,
		DeepLink: DeepLink(phone, body),
	}
}

func (d *Dispatcher) templateName(msgType domain.MessageType) string {
	if d.templates == nil {
		return string(msgType)
	}
	return d.templates.Name(string(msgType))
}

// templateLanguage maps the message locale, e.g. "fr-FR", onto the
// provider's template language code. An empty locale falls back to the
// configured default.
func (d *Dispatcher) templateLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return d.cfg.TemplateLanguage
	}
	return strings.ReplaceAll(locale, "-", "_")
}

// DeepLink builds a wa.me compose URL. The phone keeps digits only; the text
// is URL-encoded.
func DeepLink(phone, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", digitsOnly(phone), url.QueryEscape(text))
}

func plainTextBody(payload domain.Payload) string {
	p := payload.Params
	if len(p) < 5 {
		return strings.Join(p, " ")
	}
	switch payload.Type {
	case domain.TypeInvoice:
		return fmt.Sprintf("Hello %s, your invoice for %s of %s is available. Due date: %s. %s", p[0], p[1], p[2], p[3], p[4])
	case domain.TypeRentcall:
		return fmt.Sprintf("Hello %s, the rent for %s is due: %s by %s. %s", p[0], p[1], p[2], p[3], p[4])
	case domain.TypeRentcallReminder, domain.TypeRentcallLast:
		overdue := ""
		if len(p) > 5 {
			overdue = fmt.Sprintf(" Your payment is %s day(s) overdue.", p[5])
		}
		return fmt.Sprintf("Hello %s, reminder: the rent for %s of %s was due on %s.%s %s", p[0], p[1], p[2], p[3], overdue, p[4])
	default:
		return strings.Join(p, " ")
	}
}

func normalizePhones(phones []string) []string {
	out := make([]string, 0, len(phones))
	seen := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		digits := digitsOnly(phone)
		if digits == "" {
			continue
		}
		if _, dup := seen[digits]; dup {
			continue
		}
		seen[digits] = struct{}{}
		out = append(out, digits)
	}
	return out
}

func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

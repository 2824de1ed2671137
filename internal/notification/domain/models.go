// Package domain defines the outbound notification model.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MessageType selects the notification template family.
type MessageType string

const (
	TypeInvoice          MessageType = "invoice"
	TypeRentcall         MessageType = "rentcall"
	TypeRentcallReminder MessageType = "rentcall_reminder"
	TypeRentcallLast     MessageType = "rentcall_last_reminder"
)

var (
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNoNotificationRequired = errors.New("no notification required")
	ErrMissingRecipient       = errors.New("missing recipient")
	ErrProviderFailed         = errors.New("provider request failed")
)

// ParseMessageType validates a raw selector.
func ParseMessageType(raw string) (MessageType, error) {
	switch MessageType(raw) {
	case TypeInvoice, TypeRentcall, TypeRentcallReminder, TypeRentcallLast:
		return MessageType(raw), nil
	case "":
		return TypeInvoice, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMessageType, raw)
	}
}

// NeedsDaysOverdue reports whether the template takes a days-overdue parameter.
func (t MessageType) NeedsDaysOverdue() bool {
	return t == TypeRentcallReminder || t == TypeRentcallLast
}

// Recipient identifies who a notification goes to.
type Recipient struct {
	Name   string
	Phones []string
	Email  string
}

// OutboundMessage is the ephemeral value built per notification attempt.
// Locale selects the template language at dispatch; empty means the
// configured default.
type OutboundMessage struct {
	Type     MessageType
	Tenant   Recipient
	Locale   string
	Currency string
	Period   string
	DueDate  time.Time
	Link     string
}

// Payload is the ordered template parameter list for one message.
type Payload struct {
	Type   MessageType
	Params []string
}

// Delivery channels, terminal states of the dispatch fallback chain.
const (
	ViaAPITemplate = "api-template"
	ViaAPIText     = "api-text"
	ViaClientLink  = "client-link"
)

// RecipientOutcome is the terminal dispatch result for one phone number.
type RecipientOutcome struct {
	Phone     string `json:"phone"`
	Via       string `json:"via"`
	MessageID string `json:"message_id,omitempty"`
	DeepLink  string `json:"deep_link,omitempty"`
}

// DispatchResult aggregates per-recipient outcomes for one message.
type DispatchResult struct {
	Type         MessageType        `json:"message_type"`
	Outcomes     []RecipientOutcome `json:"outcomes"`
	APISuccesses int                `json:"api_successes"`
	LinkFallback int                `json:"link_fallbacks"`
}

// Messenger is the outbound provider surface used by the dispatcher.
type Messenger interface {
	SendTemplate(ctx context.Context, phone, template, language string, params []string) (string, error)
	SendText(ctx context.Context, phone, body string) (string, error)
}

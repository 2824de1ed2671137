package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rentstack/rentstack/internal/notification/domain"
)

// BuildPayload turns an outbound message into the ordered template parameter
// list for its message type. When the net balance is zero or negative the
// tenant owes nothing and no notification is required.
func BuildPayload(msg domain.OutboundMessage, netBalance float64, now time.Time) (domain.Payload, error) {
	if math.IsNaN(netBalance) || math.IsInf(netBalance, 0) {
		return domain.Payload{}, fmt.Errorf("%w: net balance is not a number", domain.ErrInvalidAmount)
	}
	if netBalance <= 0 {
		return domain.Payload{}, domain.ErrNoNotificationRequired
	}
	if msg.Tenant.Name == "" {
		return domain.Payload{}, domain.ErrMissingRecipient
	}

	amount := formatAmount(netBalance, msg.Currency)
	params := []string{
		msg.Tenant.Name,
		msg.Period,
		amount,
		msg.DueDate.Format("2006-01-02"),
		msg.Link,
	}

	if msg.Type.NeedsDaysOverdue() {
		params = append(params, strconv.Itoa(daysOverdue(msg.DueDate, now)))
	}

	return domain.Payload{Type: msg.Type, Params: params}, nil
}

// PeriodLabel renders a YYYYMM term id as a human period, e.g. "March 2026".
func PeriodLabel(term int) string {
	year := term / 100
	month := term % 100
	if month < 1 || month > 12 {
		return strconv.Itoa(term)
	}
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func daysOverdue(dueDate, now time.Time) int {
	if dueDate.IsZero() || !now.After(dueDate) {
		return 0
	}
	return int(now.Sub(dueDate).Hours() / 24)
}

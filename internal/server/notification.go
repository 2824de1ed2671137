package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/rentstack/rentstack/internal/notification/domain"
	notificationservice "github.com/rentstack/rentstack/internal/notification/service"
)

type sendInvoiceRequest struct {
	MessageType string    `json:"messageType"`
	Tenant      tenantRef `json:"tenant"`
	Term        int       `json:"term"`
	Period      string    `json:"period"`
	Currency    string    `json:"currency"`
	Balance     float64   `json:"balance"`
	DueDate     time.Time `json:"dueDate"`
	Link        string    `json:"link"`
	Locale      string    `json:"locale"`
}

type tenantRef struct {
	Name   string   `json:"name"`
	Phones []string `json:"phones"`
	Email  string   `json:"email"`
}

// sendInvoice builds and dispatches one notification. A non-positive balance
// is not an error: the tenant owes nothing and the send is skipped.
func (s *Server) sendInvoice(c *gin.Context) {
	var req sendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	msgType, err := notificationdomain.ParseMessageType(req.MessageType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	locale := req.Locale
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}
	period := req.Period
	if period == "" && req.Term > 0 {
		period = notificationservice.PeriodLabel(req.Term)
	}

	msg := notificationdomain.OutboundMessage{
		Type: msgType,
		Tenant: notificationdomain.Recipient{
			Name:   req.Tenant.Name,
			Phones: req.Tenant.Phones,
			Email:  req.Tenant.Email,
		},
		Locale:   locale,
		Currency: currency,
		Period:   period,
		DueDate:  req.DueDate,
		Link:     req.Link,
	}

	payload, err := notificationservice.BuildPayload(msg, req.Balance, time.Now())
	if err != nil {
		if errors.Is(err, notificationdomain.ErrNoNotificationRequired) {
			c.JSON(http.StatusOK, gin.H{
				"status": "skipped",
				"reason": "no payment due",
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	result, err := s.dispatcher.Dispatch(c.Request.Context(), msg, payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

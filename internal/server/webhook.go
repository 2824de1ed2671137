package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentstack/rentstack/internal/delivery"
	"go.uber.org/zap"
)

// verifyWebhook answers the provider's subscription handshake.
func (s *Server) verifyWebhook(c *gin.Context) {
	challenge, ok := delivery.VerifyHandshake(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		s.cfg.WhatsApp.WebhookVerifyToken,
	)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.String(http.StatusOK, challenge)
}

// receiveWebhook ingests delivery-status pushes. The provider retries on
// non-2xx, so updates for unknown message ids are absorbed, not rejected.
func (s *Server) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updates, err := delivery.ParseStatusUpdates(body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	for _, update := range updates {
		s.tracker.ApplyStatusUpdate(update)
		s.metrics.RecordStatusUpdate(delivery.NormalizeStatus(update.Status))
	}
	if len(updates) > 0 {
		s.log.Debug("webhook status updates applied", zap.Int("count", len(updates)))
	}
	c.JSON(http.StatusOK, gin.H{"received": len(updates)})
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler interface {
	HandleMessage(ctx context.Context, from, body string) error
}

// WebhookHandler receives inbound WhatsApp messages from Twilio (form-encoded From/Body).
type WebhookHandler struct {
	bot MessageHandler
	log *zap.Logger
}

func NewWebhookHandler(bot MessageHandler, log *zap.Logger) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{bot: bot, log: log}
}

// Receive acknowledges with 200 once the message is processed. Replies go out through
// the REST API, so the body is empty. 500 only when conversation state could not be saved.
func (h *WebhookHandler) Receive(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	if err := h.bot.HandleMessage(c.Request.Context(), from, body); err != nil {
		h.log.Error("webhook: handle message", zap.String("from", from), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

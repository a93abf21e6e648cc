package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/notify"
	"github.com/sst-resolve/resolve-bot/internal/service"
)

const maxSlackPayload = 1 << 20

// SlackActionsHandler handles the ticket buttons posted with each new ticket.
type SlackActionsHandler struct {
	svc           service.TicketServicer
	events        EventPublisher
	signingSecret string
	log           *zap.Logger
}

// NewSlackActionsHandler: при пустом signingSecret подпись не проверяется (локальная разработка).
func NewSlackActionsHandler(svc service.TicketServicer, events EventPublisher, signingSecret string, log *zap.Logger) *SlackActionsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SlackActionsHandler{svc: svc, events: events, signingSecret: signingSecret, log: log}
}

func (h *SlackActionsHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlackPayload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.signingSecret != "" {
		sv, err := slack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
		if err == nil {
			_, _ = sv.Write(body)
			err = sv.Ensure()
		}
		if err != nil {
			h.log.Warn("slack actions: bad signature", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if cb.Type != slack.InteractionTypeBlockActions {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	for _, action := range cb.ActionCallback.BlockActions {
		id, status, err := notify.ParseAction(action.ActionID, action.Value)
		if err != nil {
			h.log.Warn("slack actions: unrecognized action", zap.Error(err))
			continue
		}
		log := h.log.With(zap.Uint64("ticket_id", id), zap.String("action", action.ActionID), zap.String("slack_user", cb.User.ID))
		if status == "" {
			// TAT и комментарии пока только фиксируются в логе
			log.Info("slack actions: ticket action received")
			continue
		}
		t, err := h.svc.Update(ctx, id, map[string]interface{}{"status": string(status)})
		if err != nil {
			if errors.Is(err, errs.ErrTicketNotFound) {
				log.Warn("slack actions: ticket not found")
				continue
			}
			log.Error("slack actions: update status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ticket"})
			return
		}
		log.Info("slack actions: status changed", zap.String("status", string(status)))
		if h.events != nil {
			h.events.PublishTicket(EventTicketUpdated, t)
		}
	}
	c.Status(http.StatusOK)
}

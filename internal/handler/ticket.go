package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/model"
	"github.com/sst-resolve/resolve-bot/internal/service"
)

const EventTicketUpdated = "ticket.updated"

// EventPublisher: асинхронная отправка событий тикета (Kafka).
type EventPublisher interface {
	PublishTicket(event string, t *model.Ticket)
}

type TicketHandler struct {
	svc    service.TicketServicer
	events EventPublisher
}

func NewTicketHandler(svc service.TicketServicer, events EventPublisher) *TicketHandler {
	return &TicketHandler{svc: svc, events: events}
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("user_number"); v != "" {
		filter["user_number = ?"] = v
	}
	if v := c.Query("category"); v != "" {
		filter["category = ?"] = v
	}
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   total,
	})
}

type updateTicketRequest struct {
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *TicketHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	changes := make(map[string]interface{})
	if req.Status != nil {
		if !model.TicketStatus(*req.Status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		changes["status"] = *req.Status
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no changes"})
		return
	}
	t, err := h.svc.Update(c.Request.Context(), id, changes)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.events != nil {
		h.events.PublishTicket(EventTicketUpdated, t)
	}
	c.JSON(http.StatusOK, t)
}

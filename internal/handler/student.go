package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/service"
)

// StudentHandler exposes the registered profiles; the email is the one field staff set by hand.
type StudentHandler struct {
	svc service.StudentServicer
}

func NewStudentHandler(svc service.StudentServicer) *StudentHandler {
	return &StudentHandler{svc: svc}
}

func (h *StudentHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, errs.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

type patchStudentRequest struct {
	Email *string `json:"email" binding:"required"`
}

func (h *StudentHandler) Patch(c *gin.Context) {
	userID := c.Param("user_id")
	var req patchStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	email := strings.TrimSpace(*req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
	}
	ctx := c.Request.Context()
	// только существующие анкеты: PATCH не создаёт студента
	if _, err := h.svc.Get(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Upsert(ctx, userID, service.ProfileUpdate{Email: &email}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Get(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

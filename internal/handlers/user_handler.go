package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Register(req.UserID); err != nil {
		if errors.Is(err, services.ErrRegistrationClosed) {
			c.JSON(http.StatusForbidden, gin.H{"error": "registration_closed"})
			return
		}
		zap.S().Errorf("[users][register] user_id=%s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}

	user, err := h.service.GetProfile(userID)
	if err != nil {
		zap.S().Errorf("[users][profile] user_id=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": user})
}

// UpdateProfile меняет только display_name. Поле telegram_id через PATCH
// не принимается вовсе: привязка Telegram происходит исключительно через
// верификацию по nonce.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}

	var req map[string]json.RawMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, found := req["telegram_id"]; found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "telegram_verification_required"})
		return
	}

	if raw, found := req["display_name"]; found {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_display_name"})
			return
		}
		if err := h.service.UpdateDisplayName(userID, name); err != nil {
			zap.S().Errorf("[users][profile] update user_id=%s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

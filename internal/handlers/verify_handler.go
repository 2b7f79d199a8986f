package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/services"
)

type VerifyHandler struct {
	service services.VerificationService
}

func NewVerifyHandler(service services.VerificationService) *VerifyHandler {
	return &VerifyHandler{service: service}
}

// @Summary      Выдать nonce для привязки Telegram
// @Description  Генерирует одноразовый код; прежний челлендж пользователя аннулируется
// @Tags         Telegram
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.TelegramChallenge
// @Failure      401  {object}  map[string]string
// @Router       /profile/telegram/challenge [post]
func (h *VerifyHandler) Challenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}

	// Бот может представиться в запросе (например при нескольких ботах),
	// иначе берём username из конфигурации.
	var req struct {
		BotUsername string `json:"bot_username"`
	}
	_ = c.ShouldBindJSON(&req)

	challenge, err := h.service.Challenge(c.Request.Context(), userID, req.BotUsername)
	if err != nil {
		zap.S().Errorf("[verify][challenge] user_id=%s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// @Summary      Завершить привязку Telegram по nonce
// @Description  Вызывается ботом после /start <nonce>; код одноразовый
// @Tags         Telegram
// @Accept       json
// @Produce      json
// @Param        verification  body      object  true  "nonce, telegram_user_id, telegram_username"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /telegram/verify/complete [post]
func (h *VerifyHandler) Complete(c *gin.Context) {
	var req struct {
		Nonce            string          `json:"nonce" binding:"required"`
		TelegramUserID   json.RawMessage `json:"telegram_user_id" binding:"required"`
		TelegramUsername string          `json:"telegram_username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// id принимаем и числом, и строкой.
	telegramID := string(req.TelegramUserID)
	var s string
	if err := json.Unmarshal(req.TelegramUserID, &s); err == nil {
		telegramID = s
	}

	err := h.service.Complete(c.Request.Context(), req.Nonce, telegramID, req.TelegramUsername)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, services.ErrInvalidNonce):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_nonce"})
	case errors.Is(err, services.ErrExpiredNonce):
		c.JSON(http.StatusBadRequest, gin.H{"error": "expired_nonce"})
	case errors.Is(err, services.ErrInvalidTelegramID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_telegram_user_id"})
	case errors.Is(err, services.ErrMaxAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_attempts_reached"})
	case errors.Is(err, services.ErrAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": "telegram_id_already_linked"})
	case errors.Is(err, services.ErrAlreadyVerified):
		c.JSON(http.StatusConflict, gin.H{"error": "already_verified"})
	default:
		zap.S().Errorf("[verify][complete] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

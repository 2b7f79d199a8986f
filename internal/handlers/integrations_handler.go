package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/services"
)

// TelegramSender отправляет сообщение в чат. Реализуется
// services.TelegramService; в тестах подменяется стабом.
type TelegramSender interface {
	SendMessage(chatID int64, text string) error
}

type IntegrationsHandler struct {
	TG            TelegramSender
	Verifications services.VerificationService
}

func NewIntegrationsHandler(tg TelegramSender, verifications services.VerificationService) *IntegrationsHandler {
	return &IntegrationsHandler{TG: tg, Verifications: verifications}
}

// Webhook принимает апдейты Telegram. Всегда отвечает 200, иначе
// Telegram начнёт ретраить и копить очередь.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.TG == nil {
		zap.S().Infof("[tg][webhook] бот не настроен, апдейт пропущен")
		c.Status(http.StatusOK)
		return
	}

	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil || up.Message == nil {
		if err != nil {
			zap.S().Warnf("[tg][webhook] bind: %v", err)
		}
		c.Status(http.StatusOK)
		return
	}

	text := strings.TrimSpace(up.Message.Text)
	chatID := up.Message.Chat.ID

	switch {
	case strings.HasPrefix(text, "/start"):
		nonce := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		if nonce == "" {
			_ = h.TG.SendMessage(chatID, "Привет! Чтобы привязать аккаунт, перейдите по ссылке из личного кабинета — код подставится сам.")
			break
		}
		if up.Message.From == nil {
			break
		}
		h.completeLink(c, chatID, nonce, up.Message.From)

	default:
		_ = h.TG.SendMessage(chatID, "Не понял команду. Откройте личный кабинет и перейдите по ссылке привязки Telegram.")
	}

	c.Status(http.StatusOK)
}

func (h *IntegrationsHandler) completeLink(c *gin.Context, chatID int64, nonce string, from *tgbotapi.User) {
	telegramID := strconv.FormatInt(from.ID, 10)
	err := h.Verifications.Complete(c.Request.Context(), nonce, telegramID, from.UserName)

	switch {
	case err == nil:
		_ = h.TG.SendMessage(chatID, "Готово! Telegram привязан к вашему аккаунту.")
	case errors.Is(err, services.ErrInvalidNonce):
		_ = h.TG.SendMessage(chatID, "Код недействителен. Сгенерируйте новый в личном кабинете.")
	case errors.Is(err, services.ErrExpiredNonce):
		_ = h.TG.SendMessage(chatID, "Код истёк. Сгенерируйте новый в личном кабинете.")
	case errors.Is(err, services.ErrMaxAttempts):
		_ = h.TG.SendMessage(chatID, "Превышено число попыток. Сгенерируйте новый код.")
	case errors.Is(err, services.ErrAlreadyLinked):
		_ = h.TG.SendMessage(chatID, "Этот Telegram уже привязан к другому аккаунту.")
	case errors.Is(err, services.ErrAlreadyVerified):
		_ = h.TG.SendMessage(chatID, "Аккаунт уже привязан к Telegram.")
	default:
		zap.S().Errorf("[tg][webhook] complete chat_id=%d: %v", chatID, err)
		_ = h.TG.SendMessage(chatID, "Не удалось привязать аккаунт, попробуйте позже.")
	}
}

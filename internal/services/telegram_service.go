package services

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramService is the embedded mediating agent: it answers chats on
// behalf of the hub. Created only when a bot token is configured; the hub
// runs fine without it (an external bot server then talks to the HTTP API).
type TelegramService struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramService(botToken string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	zap.S().Infof("[tg][init] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot}, nil
}

// Username returns the bot account name, used for t.me deep links.
func (t *TelegramService) Username() string {
	return t.bot.Self.UserName
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		zap.S().Warnf("[tg][send] failed: chat_id=%d err=%v", chatID, err)
		return err
	}
	return nil
}

// SetWebhook points Telegram at our webhook route under the public base URL.
func (t *TelegramService) SetWebhook(publicBaseURL string) error {
	url := strings.TrimRight(publicBaseURL, "/") + "/integrations/telegram/webhook"
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	if _, err := t.bot.Request(wh); err != nil {
		return err
	}
	zap.S().Infof("[tg][webhook] set to %s", url)
	return nil
}

package models

import "time"

// TelegramVerification — одна активная запись на пользователя (nonce).
// Храним сам nonce (128 бит из crypto/rand, подбор невозможен), TTL и
// счётчик неудачных попыток. Состояния "expired"/"exhausted" не хранятся,
// они выводятся из expires_at и attempts в момент обращения.
type TelegramVerification struct {
	Nonce     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the nonce deadline has passed at the given moment.
func (v *TelegramVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// TelegramChallenge is what the dashboard shows the user after requesting
// verification: the command to send the bot, and a deep link when the bot
// username is known.
type TelegramChallenge struct {
	Nonce        string `json:"nonce"`
	ExpiresIn    int    `json:"expires_in"`
	StartCommand string `json:"start_command"`
	BotLink      string `json:"bot_link,omitempty"`
}

package models

import "time"

// HubUser is an account registered with the hub. User ids are opaque
// strings issued by the dashboard side; the hub only checks membership.
type HubUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`

	// Telegram-привязка. Выставляется только как side effect успешной
	// верификации, никогда напрямую из поля запроса.
	TelegramID       *string    `json:"telegram_id,omitempty"`
	TelegramUsername string     `json:"telegram_username,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Linked reports whether the account carries a telegram binding.
func (u *HubUser) Linked() bool {
	return u.TelegramID != nil && *u.TelegramID != ""
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewNonce возвращает случайный hex-токен. Используется для verification
// nonce (по умолчанию 16 байт = 128 бит, подбор невозможен).
func NewNonce(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 16
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

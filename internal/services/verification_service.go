package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/config"
	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
	"github.com/thekim123/sns-maker-hub/internal/utils"
)

var (
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrExpiredNonce      = errors.New("expired nonce")
	ErrInvalidTelegramID = errors.New("invalid telegram user id")
	ErrMaxAttempts       = errors.New("max attempts reached")
	ErrAlreadyLinked     = errors.New("telegram id already linked")
	ErrAlreadyVerified   = errors.New("account already verified")
)

// Значения по умолчанию, если в конфиге нули.
const (
	defaultNonceTTL    = 300 * time.Second
	defaultMaxAttempts = 5
	nonceBytes         = 16
)

// VerificationService owns the nonce lifecycle: issuance, one bot-mediated
// completion per nonce, bounded failure budget, lazy expiry. The telegram id
// arrives from the bot, never from a form field, so a successful Complete is
// the only way a binding is ever written.
type VerificationService interface {
	Challenge(ctx context.Context, userID, botUsername string) (*models.TelegramChallenge, error)
	Complete(ctx context.Context, nonce, telegramID, telegramUsername string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type verificationService struct {
	repo        repositories.VerificationRepository
	ttl         time.Duration
	maxAttempts int
	allowRelink bool
	botUsername string
}

func NewVerificationService(repo repositories.VerificationRepository, cfg config.VerificationConfig, botUsername string) VerificationService {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultNonceTTL
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &verificationService{
		repo:        repo,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		allowRelink: cfg.AllowRelink,
		botUsername: botUsername,
	}
}

// Challenge replaces the user's previous nonce (one active per user) and
// returns the instruction the dashboard shows.
func (s *verificationService) Challenge(ctx context.Context, userID, botUsername string) (*models.TelegramChallenge, error) {
	nonce, err := utils.NewNonce(nonceBytes)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	v, err := s.repo.Replace(ctx, userID, nonce, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("store nonce: %w", err)
	}

	// Имя бота из запроса важнее дефолта из конфига.
	if botUsername == "" {
		botUsername = s.botUsername
	}
	ch := &models.TelegramChallenge{
		Nonce:        v.Nonce,
		ExpiresIn:    int(s.ttl / time.Second),
		StartCommand: "/start " + v.Nonce,
	}
	if botUsername != "" {
		ch.BotLink = "https://t.me/" + botUsername + "?start=" + v.Nonce
	}
	zap.S().Infof("[verify][challenge] ok: user_id=%s expires_in=%d", userID, ch.ExpiresIn)
	return ch, nil
}

func (s *verificationService) Complete(ctx context.Context, nonce, telegramID, telegramUsername string) error {
	// Telegram user id — всегда число. Неверный формат расходует попытку,
	// до привязки дело не доходит.
	if !allDigits(telegramID) {
		res, err := s.repo.FailByNonce(ctx, nonce, s.maxAttempts)
		if err != nil {
			return err
		}
		switch res.Status {
		case repositories.VerifyInvalid:
			return ErrInvalidNonce
		case repositories.VerifyExpired:
			return ErrExpiredNonce
		case repositories.VerifyMaxAttempts:
			zap.S().Warnf("[verify][complete] budget exhausted: user_id=%s", res.UserID)
			return ErrMaxAttempts
		default:
			return ErrInvalidTelegramID
		}
	}

	res, err := s.repo.CompleteByNonce(ctx, nonce, telegramID, telegramUsername, s.maxAttempts, s.allowRelink)
	if err != nil {
		return err
	}
	switch res.Status {
	case repositories.VerifyOK:
		zap.S().Infof("[verify][complete] ok: user_id=%s", res.UserID)
		return nil
	case repositories.VerifyInvalid:
		return ErrInvalidNonce
	case repositories.VerifyExpired:
		return ErrExpiredNonce
	case repositories.VerifyConflict:
		zap.S().Warnf("[verify][complete] conflict: user_id=%s attempts=%d", res.UserID, res.Attempts)
		return ErrAlreadyLinked
	case repositories.VerifyRelinkDenied:
		return ErrAlreadyVerified
	case repositories.VerifyMaxAttempts:
		zap.S().Warnf("[verify][complete] budget exhausted: user_id=%s", res.UserID)
		return ErrMaxAttempts
	default:
		return fmt.Errorf("unexpected verification status %q", res.Status)
	}
}

// PurgeExpired drops expired rows ahead of their lazy cleanup. Purely an
// optimization: expiry is decided by expires_at at access time either way.
func (s *verificationService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

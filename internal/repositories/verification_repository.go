package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/thekim123/sns-maker-hub/internal/models"
)

// Outcomes of a verification attempt. The service layer maps these onto the
// error codes the API exposes.
const (
	VerifyOK           = "ok"
	VerifyInvalid      = "invalid"
	VerifyExpired      = "expired"
	VerifyFailed       = "failed"
	VerifyConflict     = "conflict"
	VerifyRelinkDenied = "relink_denied"
	VerifyMaxAttempts  = "max_attempts"
)

type VerificationResult struct {
	Status   string
	UserID   string
	Attempts int
}

type VerificationRepository interface {
	Replace(ctx context.Context, userID, nonce string, ttl time.Duration) (*models.TelegramVerification, error)
	CompleteByNonce(ctx context.Context, nonce, telegramID, telegramUsername string, maxAttempts int, allowRelink bool) (*VerificationResult, error)
	FailByNonce(ctx context.Context, nonce string, maxAttempts int) (*VerificationResult, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type verificationRepository struct {
	db *sql.DB
	// Момент "сейчас" для проверки TTL; подменяется в тестах.
	now func() time.Time
}

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{db: db, now: time.Now}
}

// Replace drops the user's previous challenge (if any) and issues a new one.
// UNIQUE(user_id) on the table keeps concurrent challenges from stacking up.
func (r *verificationRepository) Replace(ctx context.Context, userID, nonce string, ttl time.Duration) (*models.TelegramVerification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}

	expiresAt := r.now().Add(ttl)
	row := tx.QueryRowContext(ctx, `
		INSERT INTO telegram_verifications (nonce, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING nonce, user_id, attempts, created_at, expires_at
	`, nonce, userID, expiresAt)

	var v models.TelegramVerification
	if err := row.Scan(&v.Nonce, &v.UserID, &v.Attempts, &v.CreatedAt, &v.ExpiresAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &v, nil
}

// CompleteByNonce runs one verification attempt to its outcome inside a single
// transaction. The nonce row is locked FOR UPDATE, so attempts against the
// same nonce are serialized and the attempt counter never loses an increment.
// Failed attempts (bad id, conflict, relink denied) consume budget and commit;
// the attempt that pushes the counter to maxAttempts burns the nonce instead.
func (r *verificationRepository) CompleteByNonce(ctx context.Context, nonce, telegramID, telegramUsername string, maxAttempts int, allowRelink bool) (*VerificationResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var v models.TelegramVerification
	err = tx.QueryRowContext(ctx, `
		SELECT nonce, user_id, attempts, created_at, expires_at
		FROM telegram_verifications
		WHERE nonce=$1
		FOR UPDATE
	`, nonce).Scan(&v.Nonce, &v.UserID, &v.Attempts, &v.CreatedAt, &v.ExpiresAt)
	if err == sql.ErrNoRows {
		return &VerificationResult{Status: VerifyInvalid}, nil
	}
	if err != nil {
		return nil, err
	}

	if v.Expired(r.now()) {
		// Просроченный nonce удаляется сразу, без расхода попыток.
		if _, err := tx.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE nonce=$1`, v.Nonce); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &VerificationResult{Status: VerifyExpired, UserID: v.UserID}, nil
	}

	var currentTelegramID sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT telegram_id FROM hub_users WHERE user_id=$1 FOR UPDATE
	`, v.UserID).Scan(&currentTelegramID)
	if err == sql.ErrNoRows {
		// Пользователь исчез — nonce больше ничего не значит.
		return &VerificationResult{Status: VerifyInvalid}, nil
	}
	if err != nil {
		return nil, err
	}

	if currentTelegramID.Valid && !allowRelink {
		return r.failLocked(ctx, tx, &v, maxAttempts, VerifyRelinkDenied)
	}

	var taken bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM hub_users WHERE telegram_id=$1 AND user_id<>$2)
	`, telegramID, v.UserID).Scan(&taken)
	if err != nil {
		return nil, err
	}
	if taken {
		return r.failLocked(ctx, tx, &v, maxAttempts, VerifyConflict)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE hub_users
		SET telegram_id=$1, telegram_username=NULLIF($2,''), verified_at=NOW()
		WHERE user_id=$3
	`, telegramID, telegramUsername, v.UserID)
	if err != nil {
		// Гонка двух nonce с одним telegram_id: уникальный индекс решает,
		// проигравший всё равно тратит попытку в новой транзакции.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			tx.Rollback()
			return r.failDetached(ctx, nonce, maxAttempts, VerifyConflict)
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE nonce=$1`, v.Nonce); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &VerificationResult{Status: VerifyOK, UserID: v.UserID, Attempts: v.Attempts}, nil
}

// FailByNonce charges one failed attempt without touching the binding. The
// caller uses it when the attempt was rejected before the engine even looked
// at the account (for example a malformed telegram id).
func (r *verificationRepository) FailByNonce(ctx context.Context, nonce string, maxAttempts int) (*VerificationResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var v models.TelegramVerification
	err = tx.QueryRowContext(ctx, `
		SELECT nonce, user_id, attempts, created_at, expires_at
		FROM telegram_verifications
		WHERE nonce=$1
		FOR UPDATE
	`, nonce).Scan(&v.Nonce, &v.UserID, &v.Attempts, &v.CreatedAt, &v.ExpiresAt)
	if err == sql.ErrNoRows {
		return &VerificationResult{Status: VerifyInvalid}, nil
	}
	if err != nil {
		return nil, err
	}

	if v.Expired(r.now()) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE nonce=$1`, v.Nonce); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &VerificationResult{Status: VerifyExpired, UserID: v.UserID}, nil
	}

	return r.failLocked(ctx, tx, &v, maxAttempts, VerifyFailed)
}

func (r *verificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// failLocked charges one attempt against the locked nonce row and commits.
// Reaching maxAttempts deletes the nonce and reports that instead of status.
func (r *verificationRepository) failLocked(ctx context.Context, tx *sql.Tx, v *models.TelegramVerification, maxAttempts int, status string) (*VerificationResult, error) {
	v.Attempts++
	if v.Attempts >= maxAttempts {
		if _, err := tx.ExecContext(ctx, `DELETE FROM telegram_verifications WHERE nonce=$1`, v.Nonce); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &VerificationResult{Status: VerifyMaxAttempts, UserID: v.UserID, Attempts: v.Attempts}, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE telegram_verifications SET attempts=$1 WHERE nonce=$2`, v.Attempts, v.Nonce); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &VerificationResult{Status: status, UserID: v.UserID, Attempts: v.Attempts}, nil
}

// failDetached re-locks the nonce in a fresh transaction after an aborted one.
func (r *verificationRepository) failDetached(ctx context.Context, nonce string, maxAttempts int, status string) (*VerificationResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var v models.TelegramVerification
	err = tx.QueryRowContext(ctx, `
		SELECT nonce, user_id, attempts, created_at, expires_at
		FROM telegram_verifications
		WHERE nonce=$1
		FOR UPDATE
	`, nonce).Scan(&v.Nonce, &v.UserID, &v.Attempts, &v.CreatedAt, &v.ExpiresAt)
	if err == sql.ErrNoRows {
		return &VerificationResult{Status: VerifyInvalid}, nil
	}
	if err != nil {
		return nil, err
	}
	return r.failLocked(ctx, tx, &v, maxAttempts, status)
}

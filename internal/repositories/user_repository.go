package repositories

import (
	"database/sql"

	"github.com/thekim123/sns-maker-hub/internal/models"
)

type UserRepository interface {
	Create(user *models.HubUser) error
	GetByID(userID string) (*models.HubUser, error)
	Exists(userID string) (bool, error)
	UpdateDisplayName(userID, displayName string) error
	GetCount() (int, error)
	GetCountLinked() (int, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.HubUser) error {
	// Повторная регистрация не считается ошибкой.
	const q = `
		INSERT INTO hub_users (user_id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.DB.Exec(q, user.UserID, user.DisplayName)
	return err
}

func (r *userRepository) GetByID(userID string) (*models.HubUser, error) {
	const q = `
		SELECT user_id, display_name, telegram_id, telegram_username, verified_at, created_at
		FROM hub_users
		WHERE user_id = $1
	`
	u := &models.HubUser{}
	var (
		tgID       sql.NullString
		tgUsername sql.NullString
		verifiedAt sql.NullTime
	)
	err := r.DB.QueryRow(q, userID).Scan(
		&u.UserID, &u.DisplayName, &tgID, &tgUsername, &verifiedAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tgID.Valid {
		s := tgID.String
		u.TelegramID = &s
	}
	if tgUsername.Valid {
		u.TelegramUsername = tgUsername.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.VerifiedAt = &t
	}
	return u, nil
}

func (r *userRepository) Exists(userID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM hub_users WHERE user_id=$1)`, userID).Scan(&ok)
	return ok, err
}

func (r *userRepository) UpdateDisplayName(userID, displayName string) error {
	_, err := r.DB.Exec(`UPDATE hub_users SET display_name=$1 WHERE user_id=$2`, displayName, userID)
	return err
}

func (r *userRepository) GetCount() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM hub_users`).Scan(&c)
	return c, err
}

func (r *userRepository) GetCountLinked() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM hub_users WHERE telegram_id IS NOT NULL`).Scan(&c)
	return c, err
}

package services

import (
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

var ErrRegistrationClosed = errors.New("registration closed")

type UserService interface {
	Register(userID string) error
	GetProfile(userID string) (*models.HubUser, error)
	UpdateDisplayName(userID, displayName string) error
}

type userService struct {
	repo          repositories.UserRepository
	allowNewUsers bool
}

func NewUserService(repo repositories.UserRepository, allowNewUsers bool) UserService {
	return &userService{repo: repo, allowNewUsers: allowNewUsers}
}

// Register adds the account. When registration is closed only already-known
// ids pass (re-register is a no-op either way).
func (s *userService) Register(userID string) error {
	if !s.allowNewUsers {
		known, err := s.repo.Exists(userID)
		if err != nil {
			return err
		}
		if !known {
			return ErrRegistrationClosed
		}
	}
	if err := s.repo.Create(&models.HubUser{UserID: userID}); err != nil {
		return err
	}
	zap.S().Infof("[users][register] ok: user_id=%s", userID)
	return nil
}

func (s *userService) GetProfile(userID string) (*models.HubUser, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) UpdateDisplayName(userID, displayName string) error {
	return s.repo.UpdateDisplayName(userID, displayName)
}

package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

type PostService interface {
	Create(ctx context.Context, userID, title, content string) (*models.Post, error)
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	Latest(ctx context.Context, userID string) (*models.Post, error)
}

type postService struct {
	repo repositories.PostRepository
}

func NewPostService(repo repositories.PostRepository) PostService {
	return &postService{repo: repo}
}

func (s *postService) Create(ctx context.Context, userID, title, content string) (*models.Post, error) {
	post := &models.Post{
		PostID:  uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := s.repo.Store(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

// Latest returns the newest post of the user, nil when there is none.
func (s *postService) Latest(ctx context.Context, userID string) (*models.Post, error) {
	posts, err := s.repo.ListByUser(ctx, userID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

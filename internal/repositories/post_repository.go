package repositories

import (
	"context"
	"database/sql"

	"github.com/thekim123/sns-maker-hub/internal/models"
)

type PostRepository interface {
	Store(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, postID string) (*models.Post, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Post, error)
	ListRecent(ctx context.Context, limit int) ([]models.PostSummary, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Store(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (post_id, user_id, title, content)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, query,
		post.PostID, post.UserID, post.Title, post.Content,
	).Scan(&post.CreatedAt)
}

func (r *postRepository) FindByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `SELECT post_id, user_id, title, content, created_at
       FROM posts WHERE post_id = $1`
	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, postID).Scan(
		&post.PostID, &post.UserID, &post.Title, &post.Content, &post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Post, error) {
	query := `SELECT post_id, user_id, title, content, created_at
       FROM posts WHERE user_id = $1
       ORDER BY created_at DESC
       LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.PostID, &p.UserID, &p.Title, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *postRepository) ListRecent(ctx context.Context, limit int) ([]models.PostSummary, error) {
	query := `SELECT post_id, user_id, title, created_at
       FROM posts ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PostSummary
	for rows.Next() {
		var s models.PostSummary
		if err := rows.Scan(&s.PostID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

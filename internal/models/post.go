package models

import "time"

// Post is a generated SNS post saved by a worker (or an internal
// service) so the dashboard can show what was produced for a user.
type Post struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostSummary is the compact dashboard view of a recent post (content
// omitted on purpose, lists stay small).
type PostSummary struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

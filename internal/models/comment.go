package models

import (
	"time"
)

// Comment represents a comment on an article
type Comment struct {
	ID             string      `json:"id" db:"id"`
	ArticleID      string      `json:"article" db:"article_id"`
	UserID         string      `json:"-" db:"user_id"`
	User           UserSummary `json:"user" db:"-"`
	RatingPositive int         `json:"rating_positive" db:"rating_positive"`
	RatingNegative int         `json:"rating_negative" db:"rating_negative"`
	Message        string      `json:"message" db:"message"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// CommentInput is the body of POST /v1/articles/:id/comments
type CommentInput struct {
	Message string `json:"message"`
}

package models

import (
	"time"
)

// MaxTitleLength is the maximum allowed length of an article title
const MaxTitleLength = 50

// Article represents an article in the forum
type Article struct {
	ID             string      `json:"id" db:"id"`
	Title          string      `json:"title" db:"title"`
	Content        string      `json:"content" db:"content"`
	ImageURL       string      `json:"image_url,omitempty" db:"image_url"`
	UserID         string      `json:"-" db:"user_id"`
	User           UserSummary `json:"user" db:"-"`
	RatingPositive int         `json:"rating_positive" db:"rating_positive"`
	RatingNegative int         `json:"rating_negative" db:"rating_negative"`
	Views          int         `json:"views" db:"views"`
	CommentCount   int         `json:"comment_count" db:"-"` // Computed on read
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// ArticleInput is the body of article create and update requests
type ArticleInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// ArticlePatch carries a partial update; nil fields are left unchanged
type ArticlePatch struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
}

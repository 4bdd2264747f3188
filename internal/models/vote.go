package models

import (
	"time"
)

// TargetKind identifies what a vote applies to
type TargetKind string

const (
	TargetArticle TargetKind = "article"
	TargetComment TargetKind = "comment"
)

// Title returns the capitalized kind, e.g. "Article"
func (k TargetKind) Title() string {
	switch k {
	case TargetArticle:
		return "Article"
	case TargetComment:
		return "Comment"
	}
	return string(k)
}

// VoteAction is the action keyword taken from the URL
type VoteAction string

const (
	ActionUpvote   VoteAction = "upvote"
	ActionDownvote VoteAction = "downvote"
)

// ValidActions defines allowed vote actions
var ValidActions = map[VoteAction]bool{
	ActionUpvote:   true,
	ActionDownvote: true,
}

// IsUpvote reports the polarity requested by the action
func (a VoteAction) IsUpvote() bool {
	return a == ActionUpvote
}

// VoteOutcome is the result of casting a vote
type VoteOutcome string

const (
	VoteRegistered VoteOutcome = "registered"
	VoteChanged    VoteOutcome = "changed"
	VoteRejected   VoteOutcome = "rejected"
)

// Vote is a single user's vote on an article or a comment.
// There is at most one row per (user, target).
type Vote struct {
	ID        string     `json:"id" db:"id"`
	Kind      TargetKind `json:"kind" db:"-"`
	UserID    string     `json:"user_id" db:"user_id"`
	TargetID  string     `json:"target_id" db:"target_id"`
	IsUpvote  bool       `json:"is_upvote" db:"is_upvote"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

package service

import (
	"errors"
	"fmt"

	"github.com/student-forum-api/internal/models"
)

var (
	// ErrInvalidAction is returned for a vote keyword other than upvote/downvote
	ErrInvalidAction = errors.New("Invalid vote action")

	ErrNotFound      = errors.New("not found")
	ErrDuplicateVote = errors.New("duplicate vote")

	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrUnauthorized       = errors.New("authentication required")

	ErrTitleTaken = errors.New("an article with this title already exists")
	ErrForbidden  = errors.New("you can only modify your own articles")
)

// NotFoundError names the missing resource, e.g. "Comment not found"
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind models.TargetKind) error {
	return &NotFoundError{Resource: kind.Title()}
}

// DuplicateVoteError is returned when a user repeats the polarity they already hold
type DuplicateVoteError struct {
	Kind   models.TargetKind
	Action models.VoteAction
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("You already %sd this %s", e.Action, e.Kind)
}

func (e *DuplicateVoteError) Is(target error) bool {
	return target == ErrDuplicateVote
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/student-forum-api/internal/database"
	"github.com/student-forum-api/internal/models"
)

var (
	// ErrNotFound is returned when the row a write depends on does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint rejects a write
	ErrConflict = errors.New("conflict")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// TokenRepository stores opaque bearer tokens
type TokenRepository interface {
	Create(ctx context.Context, token *models.AuthToken) error
	GetUserByToken(ctx context.Context, token string, now time.Time) (*models.User, time.Time, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	IncrementViews(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	TitleExists(ctx context.Context, title, excludeID string) (bool, error)
	List(ctx context.Context) ([]*models.Article, error)
	Count(ctx context.Context) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
}

// VoteRepository is the vote ledger for articles and comments.
// Cast applies a vote and the matching counter change atomically.
type VoteRepository interface {
	Cast(ctx context.Context, kind models.TargetKind, userID, targetID string, upvote bool) (models.VoteOutcome, error)
	Get(ctx context.Context, kind models.TargetKind, userID, targetID string) (*models.Vote, error)
	Count(ctx context.Context, kind models.TargetKind) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Token   TokenRepository
	Article ArticleRepository
	Comment CommentRepository
	Vote    VoteRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Token:   NewTokenRepo(db),
		Article: NewArticleRepo(db),
		Comment: NewCommentRepo(db),
		Vote:    NewVoteRepo(db),
	}
}

// uniqueViolation reports whether err is a PostgreSQL unique_violation
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// foreignKeyViolation reports whether err is a PostgreSQL foreign_key_violation
func foreignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

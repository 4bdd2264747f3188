package service

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/config"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
	"github.com/student-forum-api/internal/validation"
)

// AuthService registers users and resolves bearer tokens
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// ArticleService defines the interface for article operations
type ArticleService interface {
	List(ctx context.Context) ([]*models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, userID string, input *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, userID, id string, patch *models.ArticlePatch) (*models.Article, error)
	Delete(ctx context.Context, userID, id string) error
}

// CommentService defines the interface for comment operations
type CommentService interface {
	ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error)
	Create(ctx context.Context, userID, articleID string, input *models.CommentInput) (*models.Comment, error)
}

// VoteService casts votes on articles and comments
type VoteService interface {
	CastVote(ctx context.Context, kind models.TargetKind, userID, targetID, action string) (models.VoteOutcome, error)
}

// StatsService reports row counts for the metrics endpoint
type StatsService interface {
	Counts(ctx context.Context) (map[string]int, error)
}

// TokenSweeper removes expired tokens in the background
type TokenSweeper interface {
	Start(ctx context.Context)
	Stop()
	Sweep(ctx context.Context) int64
}

// Services holds all service interfaces
type Services struct {
	Auth    AuthService
	Article ArticleService
	Comment CommentService
	Vote    VoteService
	Stats   StatsService
	Sweeper TokenSweeper
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	authSvc, err := newAuthService(repos, cfg.Auth, log)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	validator := validation.NewValidator(cfg.Auth.StudentDomains)
	policy := bluemonday.UGCPolicy()

	return &Services{
		Auth:    authSvc,
		Article: newArticleService(repos.Article, validator, policy, log),
		Comment: newCommentService(repos, validator, policy, log),
		Vote:    newVoteService(repos.Vote, log),
		Stats:   &statsService{repos: repos},
		Sweeper: newTokenSweeper(repos.Token, cfg.Auth.SweepInterval, log),
	}, nil
}

type statsService struct {
	repos *repository.Repositories
}

func (s *statsService) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 5)
	var err error

	if counts["users"], err = s.repos.User.Count(ctx); err != nil {
		return nil, err
	}
	if counts["articles"], err = s.repos.Article.Count(ctx); err != nil {
		return nil, err
	}
	if counts["comments"], err = s.repos.Comment.Count(ctx); err != nil {
		return nil, err
	}
	if counts["article_votes"], err = s.repos.Vote.Count(ctx, models.TargetArticle); err != nil {
		return nil, err
	}
	if counts["comment_votes"], err = s.repos.Vote.Count(ctx, models.TargetComment); err != nil {
		return nil, err
	}
	return counts, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
	"github.com/student-forum-api/internal/validation"
)

type commentService struct {
	articles  repository.ArticleRepository
	comments  repository.CommentRepository
	validator *validation.Validator
	policy    *bluemonday.Policy
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, validator *validation.Validator, policy *bluemonday.Policy, log zerolog.Logger) *commentService {
	return &commentService{
		articles:  repos.Article,
		comments:  repos.Comment,
		validator: validator,
		policy:    policy,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// ListByArticle returns the comments of an article, oldest first
func (s *commentService) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.comments.ListByArticle(ctx, articleID)
}

func (s *commentService) Create(ctx context.Context, userID, articleID string, input *models.CommentInput) (*models.Comment, error) {
	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}

	clean := &models.CommentInput{Message: strings.TrimSpace(s.policy.Sanitize(input.Message))}
	if err := s.validator.ValidateComment(clean).Err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		ArticleID: articleID,
		UserID:    userID,
		Message:   clean.Message,
		CreatedAt: time.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(models.TargetArticle)
		}
		return nil, err
	}

	s.log.Info().Str("comment_id", comment.ID).Str("article_id", articleID).Msg("Comment created")

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil || created == nil {
		return comment, err
	}
	return created, nil
}

func (s *commentService) requireArticle(ctx context.Context, articleID string) error {
	if !validation.IsValidUUID(articleID) {
		return notFound(models.TargetArticle)
	}
	exists, err := s.articles.Exists(ctx, articleID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(models.TargetArticle)
	}
	return nil
}

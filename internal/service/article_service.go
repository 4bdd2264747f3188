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

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles  repository.ArticleRepository
	validator *validation.Validator
	policy    *bluemonday.Policy
	log       zerolog.Logger
}

func newArticleService(articles repository.ArticleRepository, validator *validation.Validator, policy *bluemonday.Policy, log zerolog.Logger) *articleService {
	return &articleService{
		articles:  articles,
		validator: validator,
		policy:    policy,
		log:       log.With().Str("service", "article").Logger(),
	}
}

func (s *articleService) List(ctx context.Context) ([]*models.Article, error) {
	return s.articles.List(ctx)
}

// Get returns an article and counts the view
func (s *articleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.articles.IncrementViews(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("article_id", id).Msg("Failed to count view")
	} else {
		article.Views++
	}
	return article, nil
}

func (s *articleService) Create(ctx context.Context, userID string, input *models.ArticleInput) (*models.Article, error) {
	clean := s.clean(input)
	if err := s.validator.ValidateArticle(clean).Err(); err != nil {
		return nil, err
	}

	taken, err := s.articles.TitleExists(ctx, clean.Title, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTitleTaken
	}

	now := time.Now()
	article := &models.Article{
		ID:        uuid.New().String(),
		Title:     clean.Title,
		Content:   clean.Content,
		ImageURL:  clean.ImageURL,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTitleTaken
		}
		return nil, err
	}

	s.log.Info().Str("article_id", article.ID).Str("user_id", userID).Msg("Article created")
	return s.load(ctx, article.ID)
}

// Update applies a patch to an article owned by userID. Ratings are never touched.
func (s *articleService) Update(ctx context.Context, userID, id string, patch *models.ArticlePatch) (*models.Article, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.UserID != userID {
		return nil, ErrForbidden
	}

	input := &models.ArticleInput{Title: article.Title, Content: article.Content, ImageURL: article.ImageURL}
	if patch.Title != nil {
		input.Title = *patch.Title
	}
	if patch.Content != nil {
		input.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		input.ImageURL = *patch.ImageURL
	}

	clean := s.clean(input)
	if err := s.validator.ValidateArticle(clean).Err(); err != nil {
		return nil, err
	}

	if clean.Title != article.Title {
		taken, err := s.articles.TitleExists(ctx, clean.Title, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrTitleTaken
		}
	}

	article.Title, article.Content, article.ImageURL = clean.Title, clean.Content, clean.ImageURL
	if err := s.articles.Update(ctx, article); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrTitleTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(models.TargetArticle)
		}
		return nil, err
	}

	return s.load(ctx, id)
}

func (s *articleService) Delete(ctx context.Context, userID, id string) error {
	article, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if article.UserID != userID {
		return ErrForbidden
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(models.TargetArticle)
		}
		return err
	}
	s.log.Info().Str("article_id", id).Str("user_id", userID).Msg("Article deleted")
	return nil
}

func (s *articleService) load(ctx context.Context, id string) (*models.Article, error) {
	if !validation.IsValidUUID(id) {
		return nil, notFound(models.TargetArticle)
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, notFound(models.TargetArticle)
	}
	return article, nil
}

// clean trims the fields and strips unsafe markup from the content
func (s *articleService) clean(input *models.ArticleInput) *models.ArticleInput {
	return &models.ArticleInput{
		Title:    strings.TrimSpace(input.Title),
		Content:  strings.TrimSpace(s.policy.Sanitize(input.Content)),
		ImageURL: strings.TrimSpace(input.ImageURL),
	}
}

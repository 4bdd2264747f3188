package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/student-forum-api/internal/config"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
	"github.com/student-forum-api/internal/validation"
)

const tokenBytes = 32

// authService is the concrete implementation of AuthService
type authService struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	validator *validation.Validator
	cache     *identityCache
	cfg       config.AuthConfig
	now       func() time.Time
	log       zerolog.Logger
}

func newAuthService(repos *repository.Repositories, cfg config.AuthConfig, log zerolog.Logger) (*authService, error) {
	cache, err := newIdentityCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create identity cache: %w", err)
	}
	return &authService{
		users:     repos.User,
		tokens:    repos.Token,
		validator: validation.NewValidator(cfg.StudentDomains),
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("service", "auth").Logger(),
	}, nil
}

// Register creates a new student account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.ValidateRegistration(req).Err(); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login checks credentials and issues a bearer token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	authToken := &models.AuthToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, authToken); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	s.cache.set(token, user, authToken.ExpiresAt, now)

	s.log.Info().Str("user_id", user.ID).Msg("User logged in")
	return &models.Session{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Access:    token,
		ExpiresAt: authToken.ExpiresAt,
	}, nil
}

// Logout revokes the token. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	s.cache.remove(token)
	if _, err := s.tokens.Delete(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	now := s.now()
	if user, ok := s.cache.get(token, now); ok {
		return user, nil
	}

	user, expiresAt, err := s.tokens.GetUserByToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	s.cache.set(token, user, expiresAt, now)
	return user, nil
}

func (s *authService) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

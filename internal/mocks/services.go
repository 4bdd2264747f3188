package mocks

import (
	"context"
	"sync"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/service"
)

// MockAuthService resolves a fixed set of tokens
type MockAuthService struct {
	mu           sync.Mutex
	Tokens       map[string]*models.User
	AuthError    error
	LoggedOut    []string
	RegisterFunc func(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
}

var _ service.AuthService = (*MockAuthService)(nil)

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{Tokens: make(map[string]*models.User)}
}

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &models.User{ID: "new-user", Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}, nil
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, user := range m.Tokens {
		if user.Email == req.Email {
			return &models.Session{ID: user.ID, Email: user.Email, Access: token}, nil
		}
	}
	return nil, service.ErrInvalidCredentials
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Tokens, token)
	m.LoggedOut = append(m.LoggedOut, token)
	return nil
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if m.AuthError != nil {
		return nil, m.AuthError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Tokens[token]; ok {
		return user, nil
	}
	return nil, service.ErrUnauthorized
}

// VoteCall records one CastVote invocation
type VoteCall struct {
	Kind     models.TargetKind
	UserID   string
	TargetID string
	Action   string
}

// MockVoteService returns a canned outcome and records calls
type MockVoteService struct {
	mu      sync.Mutex
	Calls   []VoteCall
	Outcome models.VoteOutcome
	Err     error
}

var _ service.VoteService = (*MockVoteService)(nil)

func NewMockVoteService() *MockVoteService {
	return &MockVoteService{Outcome: models.VoteRegistered}
}

func (m *MockVoteService) CastVote(ctx context.Context, kind models.TargetKind, userID, targetID, action string) (models.VoteOutcome, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, VoteCall{Kind: kind, UserID: userID, TargetID: targetID, Action: action})
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Outcome, nil
}

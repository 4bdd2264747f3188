package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
)

var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.TokenRepository   = (*MockTokenRepository)(nil)
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
	_ repository.VoteRepository    = (*MockVoteRepository)(nil)
)

// Store wires the in-memory repositories together so reads can join
// authors and comment counts, and article deletes cascade.
type Store struct {
	Users    *MockUserRepository
	Tokens   *MockTokenRepository
	Articles *MockArticleRepository
	Comments *MockCommentRepository
	Votes    *MockVoteRepository
}

// NewStore creates an empty, fully wired in-memory store
func NewStore() *Store {
	users := NewMockUserRepository()
	comments := NewMockCommentRepository(users)
	articles := NewMockArticleRepository(users, comments)
	votes := NewMockVoteRepository(articles, comments)
	articles.onDelete = func(id string) {
		for _, commentID := range comments.deleteByArticle(id) {
			votes.forget(models.TargetComment, commentID)
		}
		votes.forget(models.TargetArticle, id)
	}
	return &Store{
		Users:    users,
		Tokens:   NewMockTokenRepository(users),
		Articles: articles,
		Comments: comments,
		Votes:    votes,
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    s.Users,
		Token:   s.Tokens,
		Article: s.Articles,
		Comment: s.Comments,
		Vote:    s.Votes,
	}
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu          sync.RWMutex
	Users       map[string]*models.User
	EmailToUser map[string]*models.User
	InsertError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*models.User),
		EmailToUser: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, taken := m.EmailToUser[key]; taken {
		return repository.ErrConflict
	}
	stored := *user
	m.Users[user.ID] = &stored
	m.EmailToUser[key] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.Users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.EmailToUser[strings.ToLower(email)]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.EmailToUser[strings.ToLower(email)]
	return exists, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Users), nil
}

func (m *MockUserRepository) summary(id string) models.UserSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.Users[id]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: id}
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mu     sync.Mutex
	users  *MockUserRepository
	Tokens map[string]*models.AuthToken
}

func NewMockTokenRepository(users *MockUserRepository) *MockTokenRepository {
	return &MockTokenRepository{
		users:  users,
		Tokens: make(map[string]*models.AuthToken),
	}
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *token
	m.Tokens[token.Token] = &stored
	return nil
}

func (m *MockTokenRepository) GetUserByToken(ctx context.Context, token string, now time.Time) (*models.User, time.Time, error) {
	m.mu.Lock()
	t, ok := m.Tokens[token]
	m.mu.Unlock()
	if !ok || !t.ExpiresAt.After(now) {
		return nil, time.Time{}, nil
	}
	user, err := m.users.GetByID(ctx, t.UserID)
	if user == nil || err != nil {
		return nil, time.Time{}, err
	}
	return user, t.ExpiresAt, nil
}

func (m *MockTokenRepository) Delete(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Tokens[token]
	delete(m.Tokens, token)
	return ok, nil
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, t := range m.Tokens {
		if !t.ExpiresAt.After(now) {
			delete(m.Tokens, key)
			n++
		}
	}
	return n, nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	mu          sync.RWMutex
	users       *MockUserRepository
	comments    *MockCommentRepository
	onDelete    func(id string)
	Articles    map[string]*models.Article
	InsertError error
}

func NewMockArticleRepository(users *MockUserRepository, comments *MockCommentRepository) *MockArticleRepository {
	return &MockArticleRepository{
		users:    users,
		comments: comments,
		Articles: make(map[string]*models.Article),
	}
}

func (m *MockArticleRepository) titleTaken(title, excludeID string) bool {
	for id, a := range m.Articles {
		if a.Title == title && id != excludeID {
			return true
		}
	}
	return false
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.titleTaken(article.Title, "") {
		return repository.ErrConflict
	}
	stored := *article
	stored.RatingPositive, stored.RatingNegative, stored.Views = 0, 0, 0
	m.Articles[article.ID] = &stored
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Articles[article.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.titleTaken(article.Title, article.ID) {
		return repository.ErrConflict
	}
	stored.Title = article.Title
	stored.Content = article.Content
	stored.ImageURL = article.ImageURL
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.Articles[id]
	delete(m.Articles, id)
	m.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	if m.onDelete != nil {
		m.onDelete(id)
	}
	return nil
}

func (m *MockArticleRepository) view(a *models.Article) *models.Article {
	copied := *a
	if m.users != nil {
		copied.User = m.users.summary(a.UserID)
	}
	if m.comments != nil {
		copied.CommentCount = m.comments.countByArticle(a.ID)
	}
	return &copied
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.RLock()
	a, ok := m.Articles[id]
	var out *models.Article
	if ok {
		out = m.view(a)
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *MockArticleRepository) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		a.Views++
	}
	return nil
}

func (m *MockArticleRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.Articles[id]
	return exists, nil
}

func (m *MockArticleRepository) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.titleTaken(title, excludeID), nil
}

func (m *MockArticleRepository) List(ctx context.Context) ([]*models.Article, error) {
	m.mu.RLock()
	articles := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		articles = append(articles, m.view(a))
	}
	m.mu.RUnlock()

	sort.Slice(articles, func(i, j int) bool {
		if articles[i].CreatedAt.Equal(articles[j].CreatedAt) {
			return articles[i].ID < articles[j].ID
		}
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
	return articles, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Articles), nil
}

// Ratings returns the stored counters of an article
func (m *MockArticleRepository) Ratings(id string) (positive, negative int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.Articles[id]; ok {
		return a.RatingPositive, a.RatingNegative
	}
	return 0, 0
}

func (m *MockArticleRepository) adjustRatings(id string, pos, neg int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Articles[id]
	if !ok {
		return false
	}
	a.RatingPositive += pos
	a.RatingNegative += neg
	return true
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu          sync.RWMutex
	users       *MockUserRepository
	Comments    map[string]*models.Comment
	InsertError error
}

func NewMockCommentRepository(users *MockUserRepository) *MockCommentRepository {
	return &MockCommentRepository{
		users:    users,
		Comments: make(map[string]*models.Comment),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *comment
	stored.RatingPositive, stored.RatingNegative = 0, 0
	m.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) view(c *models.Comment) *models.Comment {
	copied := *c
	if m.users != nil {
		copied.User = m.users.summary(c.UserID)
	}
	return &copied
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.Comments[id]; ok {
		return m.view(c), nil
	}
	return nil, nil
}

func (m *MockCommentRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.Comments[id]
	return exists, nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	m.mu.RLock()
	comments := make([]*models.Comment, 0)
	for _, c := range m.Comments {
		if c.ArticleID == articleID {
			comments = append(comments, m.view(c))
		}
	}
	m.mu.RUnlock()

	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Comments), nil
}

// Ratings returns the stored counters of a comment
func (m *MockCommentRepository) Ratings(id string) (positive, negative int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.Comments[id]; ok {
		return c.RatingPositive, c.RatingNegative
	}
	return 0, 0
}

func (m *MockCommentRepository) countByArticle(articleID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.Comments {
		if c.ArticleID == articleID {
			n++
		}
	}
	return n
}

func (m *MockCommentRepository) deleteByArticle(articleID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for id, c := range m.Comments {
		if c.ArticleID == articleID {
			delete(m.Comments, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (m *MockCommentRepository) adjustRatings(id string, pos, neg int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return false
	}
	c.RatingPositive += pos
	c.RatingNegative += neg
	return true
}

type voteKey struct {
	kind   models.TargetKind
	user   string
	target string
}

type targetKey struct {
	kind   models.TargetKind
	target string
}

// MockVoteRepository is an in-memory vote ledger. Votes on the same
// target serialize on a per-target mutex, mirroring the row lock taken
// by the PostgreSQL implementation.
type MockVoteRepository struct {
	articles *MockArticleRepository
	comments *MockCommentRepository

	locks sync.Map // targetKey -> *sync.Mutex

	mu    sync.RWMutex
	votes map[voteKey]*models.Vote

	// CastError, when set, is returned by Cast before anything is touched
	CastError error
	CastCalls atomic.Int64
}

func NewMockVoteRepository(articles *MockArticleRepository, comments *MockCommentRepository) *MockVoteRepository {
	return &MockVoteRepository{
		articles: articles,
		comments: comments,
		votes:    make(map[voteKey]*models.Vote),
	}
}

func (m *MockVoteRepository) targetLock(kind models.TargetKind, target string) *sync.Mutex {
	l, _ := m.locks.LoadOrStore(targetKey{kind, target}, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (m *MockVoteRepository) adjust(kind models.TargetKind, target string, pos, neg int) bool {
	switch kind {
	case models.TargetArticle:
		return m.articles.adjustRatings(target, pos, neg)
	case models.TargetComment:
		return m.comments.adjustRatings(target, pos, neg)
	}
	return false
}

func (m *MockVoteRepository) targetExists(kind models.TargetKind, target string) bool {
	var ok bool
	switch kind {
	case models.TargetArticle:
		ok, _ = m.articles.Exists(context.Background(), target)
	case models.TargetComment:
		ok, _ = m.comments.Exists(context.Background(), target)
	}
	return ok
}

func (m *MockVoteRepository) Cast(ctx context.Context, kind models.TargetKind, userID, targetID string, upvote bool) (models.VoteOutcome, error) {
	m.CastCalls.Add(1)
	if m.CastError != nil {
		return "", m.CastError
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lock := m.targetLock(kind, targetID)
	lock.Lock()
	defer lock.Unlock()

	if !m.targetExists(kind, targetID) {
		return "", repository.ErrNotFound
	}

	key := voteKey{kind, userID, targetID}
	m.mu.RLock()
	existing := m.votes[key]
	m.mu.RUnlock()

	now := time.Now()
	switch {
	case existing == nil:
		pos, neg := 0, 1
		if upvote {
			pos, neg = 1, 0
		}
		if !m.adjust(kind, targetID, pos, neg) {
			return "", repository.ErrNotFound
		}
		m.mu.Lock()
		m.votes[key] = &models.Vote{
			ID: uuid.New().String(), Kind: kind, UserID: userID, TargetID: targetID,
			IsUpvote: upvote, CreatedAt: now, UpdatedAt: now,
		}
		m.mu.Unlock()
		return models.VoteRegistered, nil

	case existing.IsUpvote == upvote:
		return models.VoteRejected, nil

	default:
		pos, neg := 1, -1
		if !upvote {
			pos, neg = -1, 1
		}
		if !m.adjust(kind, targetID, pos, neg) {
			return "", repository.ErrNotFound
		}
		m.mu.Lock()
		existing.IsUpvote = upvote
		existing.UpdatedAt = now
		m.mu.Unlock()
		return models.VoteChanged, nil
	}
}

func (m *MockVoteRepository) Get(ctx context.Context, kind models.TargetKind, userID, targetID string) (*models.Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.votes[voteKey{kind, userID, targetID}]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (m *MockVoteRepository) Count(ctx context.Context, kind models.TargetKind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key := range m.votes {
		if key.kind == kind {
			n++
		}
	}
	return n, nil
}

// Tally recounts the ledger rows for a target
func (m *MockVoteRepository) Tally(kind models.TargetKind, targetID string) (up, down int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, v := range m.votes {
		if key.kind != kind || key.target != targetID {
			continue
		}
		if v.IsUpvote {
			up++
		} else {
			down++
		}
	}
	return up, down
}

func (m *MockVoteRepository) forget(kind models.TargetKind, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.votes {
		if key.kind == kind && key.target == targetID {
			delete(m.votes, key)
		}
	}
}

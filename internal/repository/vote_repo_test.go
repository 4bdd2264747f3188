package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-forum-api/internal/database"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
)

// openTestDB connects to TEST_DATABASE_URL and migrates it, or skips
func openTestDB(t *testing.T) *repository.Repositories {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Open(dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations("../../migrations"))
	return repository.New(db)
}

func newUser(t *testing.T, repos *repository.Repositories) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, repos.User.Create(context.Background(), &models.User{
		ID:           id,
		Email:        id + "@kpi.ua",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}))
	return id
}

func newArticle(t *testing.T, repos *repository.Repositories, authorID string) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, repos.Article.Create(context.Background(), &models.Article{
		ID:        id,
		Title:     id[:30],
		Content:   "content",
		UserID:    authorID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))
	return id
}

func TestVoteRepo_Lifecycle(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	author := newUser(t, repos)
	voter := newUser(t, repos)
	articleID := newArticle(t, repos, author)

	outcome, err := repos.Vote.Cast(ctx, models.TargetArticle, voter, articleID, true)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRegistered, outcome)

	outcome, err = repos.Vote.Cast(ctx, models.TargetArticle, voter, articleID, true)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRejected, outcome)

	outcome, err = repos.Vote.Cast(ctx, models.TargetArticle, voter, articleID, false)
	require.NoError(t, err)
	assert.Equal(t, models.VoteChanged, outcome)

	article, err := repos.Article.GetByID(ctx, articleID)
	require.NoError(t, err)
	assert.Equal(t, 0, article.RatingPositive)
	assert.Equal(t, 1, article.RatingNegative)

	vote, err := repos.Vote.Get(ctx, models.TargetArticle, voter, articleID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.False(t, vote.IsUpvote)
}

func TestVoteRepo_MissingTarget(t *testing.T) {
	repos := openTestDB(t)
	voter := newUser(t, repos)

	_, err := repos.Vote.Cast(context.Background(), models.TargetComment, voter, uuid.New().String(), true)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestVoteRepo_ConcurrentVoters(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	author := newUser(t, repos)
	articleID := newArticle(t, repos, author)
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{
		ID: uuid.New().String(), ArticleID: articleID, UserID: author, Message: "m", CreatedAt: time.Now(),
	}))

	const voters = 20
	ids := make([]string, voters)
	for i := range ids {
		ids[i] = newUser(t, repos)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := repos.Vote.Cast(ctx, models.TargetArticle, userID, articleID, true)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	article, err := repos.Article.GetByID(ctx, articleID)
	require.NoError(t, err)
	assert.Equal(t, voters, article.RatingPositive)
	assert.Equal(t, 1, article.CommentCount)
}

func TestVoteRepo_SameUserRace(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()

	author := newUser(t, repos)
	voter := newUser(t, repos)
	articleID := newArticle(t, repos, author)

	var wg sync.WaitGroup
	outcomes := make([]models.VoteOutcome, 2)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := repos.Vote.Cast(ctx, models.TargetArticle, voter, articleID, true)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []models.VoteOutcome{models.VoteRegistered, models.VoteRejected}, outcomes)

	article, err := repos.Article.GetByID(ctx, articleID)
	require.NoError(t, err)
	assert.Equal(t, 1, article.RatingPositive)
}

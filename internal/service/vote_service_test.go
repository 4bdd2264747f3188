package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/student-forum-api/internal/config"
	"github.com/student-forum-api/internal/mocks"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			TokenTTL:       time.Hour,
			SweepInterval:  time.Minute,
			CacheSize:      64,
			CacheTTL:       time.Minute,
			BcryptCost:     bcrypt.MinCost,
			StudentDomains: config.DefaultStudentDomains,
		},
	}
}

type fixture struct {
	store    *mocks.Store
	services *service.Services
	author   string
	article  string
	comment  string
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	store := mocks.NewStore()
	services, err := service.NewServices(store.Repositories(), testConfig(), zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	f := &fixture{
		store:    store,
		services: services,
		author:   uuid.New().String(),
		article:  uuid.New().String(),
		comment:  uuid.New().String(),
	}
	require.NoError(t, store.Users.Create(ctx, &models.User{ID: f.author, Email: "author@kpi.ua", FirstName: "Ada", LastName: "Lovelace"}))
	require.NoError(t, store.Articles.Create(ctx, &models.Article{ID: f.article, Title: "Voting", Content: "c", UserID: f.author, CreatedAt: time.Now()}))
	require.NoError(t, store.Comments.Create(ctx, &models.Comment{ID: f.comment, ArticleID: f.article, UserID: f.author, Message: "m", CreatedAt: time.Now()}))
	return f
}

func (f *fixture) ratings(kind models.TargetKind, id string) (int, int) {
	if kind == models.TargetArticle {
		return f.store.Articles.Ratings(id)
	}
	return f.store.Comments.Ratings(id)
}

func (f *fixture) target(kind models.TargetKind) string {
	if kind == models.TargetArticle {
		return f.article
	}
	return f.comment
}

var kinds = []models.TargetKind{models.TargetArticle, models.TargetComment}

func TestCastVote_RegisterThenChange(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			target := f.target(kind)

			outcome, err := f.services.Vote.CastVote(ctx, kind, "voter", target, "upvote")
			require.NoError(t, err)
			assert.Equal(t, models.VoteRegistered, outcome)

			pos, neg := f.ratings(kind, target)
			assert.Equal(t, 1, pos)
			assert.Equal(t, 0, neg)

			outcome, err = f.services.Vote.CastVote(ctx, kind, "voter", target, "downvote")
			require.NoError(t, err)
			assert.Equal(t, models.VoteChanged, outcome)

			pos, neg = f.ratings(kind, target)
			assert.Equal(t, 0, pos)
			assert.Equal(t, 1, neg)

			n, _ := f.store.Votes.Count(ctx, kind)
			assert.Equal(t, 1, n, "a flip must reuse the existing row")
		})
	}
}

func TestCastVote_DuplicateIsRejected(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			target := f.target(kind)

			_, err := f.services.Vote.CastVote(ctx, kind, "voter", target, "downvote")
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				_, err := f.services.Vote.CastVote(ctx, kind, "voter", target, "downvote")
				require.Error(t, err)
				assert.True(t, errors.Is(err, service.ErrDuplicateVote))
				assert.Equal(t, fmt.Sprintf("You already downvoted this %s", kind), err.Error())

				pos, neg := f.ratings(kind, target)
				assert.Equal(t, 0, pos)
				assert.Equal(t, 1, neg)
			}
		})
	}
}

func TestCastVote_InvalidActionTouchesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, action := range []string{"sidevote", "", "UPVOTE", "upvoted"} {
		_, err := f.services.Vote.CastVote(ctx, models.TargetArticle, "voter", f.article, action)
		assert.ErrorIs(t, err, service.ErrInvalidAction, "action %q", action)
	}

	// Invalid action wins over an unknown target
	_, err := f.services.Vote.CastVote(ctx, models.TargetComment, "voter", "missing", "sidevote")
	assert.ErrorIs(t, err, service.ErrInvalidAction)

	assert.Equal(t, int64(0), f.store.Votes.CastCalls.Load())
	n, _ := f.store.Votes.Count(ctx, models.TargetArticle)
	assert.Equal(t, 0, n)
}

func TestCastVote_UnknownTarget(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			for _, id := range []string{uuid.New().String(), "42", "not-a-uuid"} {
				_, err := f.services.Vote.CastVote(ctx, kind, "voter", id, "upvote")
				require.Error(t, err)
				assert.True(t, errors.Is(err, service.ErrNotFound))

				var nf *service.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, kind.Title()+" not found", nf.Error())
			}

			for _, k := range kinds {
				pos, neg := f.ratings(k, f.target(k))
				assert.Zero(t, pos)
				assert.Zero(t, neg)
			}
			n, _ := f.store.Votes.Count(ctx, kind)
			assert.Zero(t, n)
		})
	}
}

func TestCastVote_StorageErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.store.Votes.CastError = errors.New("connection reset")

	_, err := f.services.Vote.CastVote(context.Background(), models.TargetArticle, "voter", f.article, "upvote")
	require.Error(t, err)
	assert.Equal(t, "connection reset", err.Error())
	assert.False(t, errors.Is(err, service.ErrNotFound))
}

func TestCastVote_ConcurrentFirstTimeVoters(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			target := f.target(kind)

			const voters = 200
			var wg sync.WaitGroup
			for i := 0; i < voters; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := f.services.Vote.CastVote(ctx, kind, fmt.Sprintf("user-%d", i), target, "upvote")
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			pos, neg := f.ratings(kind, target)
			assert.Equal(t, voters, pos)
			assert.Equal(t, 0, neg)
		})
	}
}

func TestCastVote_SameUserConcurrentVotesKeepOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[models.VoteOutcome]int{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, _ := f.services.Vote.CastVote(ctx, models.TargetArticle, "voter", f.article, "upvote")
			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[models.VoteRegistered])
	assert.Equal(t, 49, outcomes[models.VoteRejected])

	n, _ := f.store.Votes.Count(ctx, models.TargetArticle)
	assert.Equal(t, 1, n)
	pos, _ := f.ratings(models.TargetArticle, f.article)
	assert.Equal(t, 1, pos)
}

// Counters always equal the ledger after any interleaving of votes
func TestCastVote_CountersMatchLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	type op struct {
		kind   models.TargetKind
		user   string
		action string
	}
	ops := make([]op, 500)
	for i := range ops {
		action := "upvote"
		if rng.Intn(2) == 0 {
			action = "downvote"
		}
		ops[i] = op{
			kind:   kinds[rng.Intn(len(kinds))],
			user:   fmt.Sprintf("user-%d", rng.Intn(20)),
			action: action,
		}
	}

	var wg sync.WaitGroup
	for _, o := range ops {
		wg.Add(1)
		go func(o op) {
			defer wg.Done()
			f.services.Vote.CastVote(ctx, o.kind, o.user, f.target(o.kind), o.action)
		}(o)
	}
	wg.Wait()

	for _, kind := range kinds {
		target := f.target(kind)
		pos, neg := f.ratings(kind, target)
		up, down := f.store.Votes.Tally(kind, target)
		assert.Equal(t, up, pos, "%s positive", kind)
		assert.Equal(t, down, neg, "%s negative", kind)
		assert.LessOrEqual(t, pos+neg, 20)

		n, _ := f.store.Votes.Count(ctx, kind)
		assert.Equal(t, n, pos+neg)
	}
}

func TestCastVote_ArticleUpdateDoesNotTouchRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Vote.CastVote(ctx, models.TargetArticle, "voter", f.article, "upvote")
	require.NoError(t, err)

	title := "Voting, revised"
	updated, err := f.services.Article.Update(ctx, f.author, f.article, &models.ArticlePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 1, updated.RatingPositive)
	assert.Equal(t, 0, updated.RatingNegative)
}

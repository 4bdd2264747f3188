package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/student-forum-api/internal/mocks"
	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
)

func seedArticle(t *testing.T, store *mocks.Store, id, title string) *models.Article {
	t.Helper()
	ctx := context.Background()
	if err := store.Users.Create(ctx, &models.User{ID: "author", Email: "author@kpi.ua", FirstName: "Ada", LastName: "Author"}); err != nil && !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Create user failed: %v", err)
	}
	article := &models.Article{ID: id, Title: title, Content: "body", UserID: "author", CreatedAt: time.Now()}
	if err := store.Articles.Create(ctx, article); err != nil {
		t.Fatalf("Create article failed: %v", err)
	}
	return article
}

func TestMockUserRepository_DuplicateEmail(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	user1 := &models.User{ID: "user-1", Email: "duplicate@kpi.ua", FirstName: "User", LastName: "One"}
	if err := repo.Create(ctx, user1); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Emails compare case-insensitively
	err := repo.Create(ctx, &models.User{ID: "user-2", Email: "Duplicate@KPI.ua"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	exists, err := repo.EmailExists(ctx, "DUPLICATE@kpi.ua")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("Email should exist")
	}

	exists, _ = repo.EmailExists(ctx, "nonexistent@kpi.ua")
	if exists {
		t.Error("Email should not exist")
	}
}

func TestMockUserRepository_Count(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	count, _ := repo.Count(ctx)
	if count != 0 {
		t.Errorf("Expected 0, got %d", count)
	}

	for i := 0; i < 5; i++ {
		repo.Create(ctx, &models.User{
			ID:    fmt.Sprintf("user-%d", i),
			Email: fmt.Sprintf("user%d@kpi.ua", i),
		})
	}

	count, _ = repo.Count(ctx)
	if count != 5 {
		t.Errorf("Expected 5, got %d", count)
	}
}

func TestMockTokenRepository_Expiry(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()
	now := time.Now()

	store.Users.Create(ctx, &models.User{ID: "user-1", Email: "a@kpi.ua"})
	store.Tokens.Create(ctx, &models.AuthToken{Token: "live", UserID: "user-1", ExpiresAt: now.Add(time.Hour)})
	store.Tokens.Create(ctx, &models.AuthToken{Token: "dead", UserID: "user-1", ExpiresAt: now.Add(-time.Minute)})

	user, _, _ := store.Tokens.GetUserByToken(ctx, "live", now)
	if user == nil || user.ID != "user-1" {
		t.Fatalf("Expected live token to resolve to user-1, got %+v", user)
	}
	user, _, _ = store.Tokens.GetUserByToken(ctx, "dead", now)
	if user != nil {
		t.Error("Expired token should not resolve")
	}

	removed, _ := store.Tokens.DeleteExpired(ctx, now)
	if removed != 1 {
		t.Errorf("Expected 1 expired token removed, got %d", removed)
	}
}

func TestMockArticleRepository_UpdateKeepsRatings(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()
	seedArticle(t, store, "article-1", "First")

	if _, err := store.Votes.Cast(ctx, models.TargetArticle, "voter", "article-1", true); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}

	err := store.Articles.Update(ctx, &models.Article{ID: "article-1", Title: "Renamed", Content: "new", RatingPositive: 99})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Articles.GetByID(ctx, "article-1")
	if got.Title != "Renamed" {
		t.Errorf("Expected title Renamed, got %s", got.Title)
	}
	if got.RatingPositive != 1 || got.RatingNegative != 0 {
		t.Errorf("Expected ratings (1,0), got (%d,%d)", got.RatingPositive, got.RatingNegative)
	}
	if got.User.FirstName != "Ada" {
		t.Errorf("Expected author summary to be joined, got %+v", got.User)
	}
}

func TestMockArticleRepository_TitleConflict(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()
	seedArticle(t, store, "article-1", "Same")

	err := store.Articles.Create(ctx, &models.Article{ID: "article-2", Title: "Same", UserID: "author"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	exists, _ := store.Articles.TitleExists(ctx, "Same", "article-1")
	if exists {
		t.Error("Title should not conflict with its own article")
	}
}

func TestMockArticleRepository_DeleteCascades(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()
	seedArticle(t, store, "article-1", "Doomed")

	store.Comments.Create(ctx, &models.Comment{ID: "comment-1", ArticleID: "article-1", UserID: "author", Message: "hi"})
	store.Votes.Cast(ctx, models.TargetArticle, "voter", "article-1", true)
	store.Votes.Cast(ctx, models.TargetComment, "voter", "comment-1", false)

	if err := store.Articles.Delete(ctx, "article-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if n, _ := store.Comments.Count(ctx); n != 0 {
		t.Errorf("Expected comments to cascade, %d left", n)
	}
	if n, _ := store.Votes.Count(ctx, models.TargetArticle); n != 0 {
		t.Errorf("Expected article votes to cascade, %d left", n)
	}
	if n, _ := store.Votes.Count(ctx, models.TargetComment); n != 0 {
		t.Errorf("Expected comment votes to cascade, %d left", n)
	}

	if err := store.Articles.Delete(ctx, "article-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMockCommentRepository_ListOrder(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()
	seedArticle(t, store, "article-1", "Thread")

	base := time.Now()
	for i := 2; i >= 0; i-- {
		store.Comments.Create(ctx, &models.Comment{
			ID:        fmt.Sprintf("comment-%d", i),
			ArticleID: "article-1",
			UserID:    "author",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	comments, err := store.Comments.ListByArticle(ctx, "article-1")
	if err != nil {
		t.Fatalf("ListByArticle failed: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(comments))
	}
	for i, c := range comments {
		if c.ID != fmt.Sprintf("comment-%d", i) {
			t.Errorf("Expected comment-%d at position %d, got %s", i, i, c.ID)
		}
	}

	article, _ := store.Articles.GetByID(ctx, "article-1")
	if article.CommentCount != 3 {
		t.Errorf("Expected comment_count 3, got %d", article.CommentCount)
	}
}

func TestMockVoteRepository_MissingTarget(t *testing.T) {
	store := mocks.NewStore()

	_, err := store.Votes.Cast(context.Background(), models.TargetComment, "voter", "nope", true)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if n, _ := store.Votes.Count(context.Background(), models.TargetComment); n != 0 {
		t.Errorf("Expected no vote rows, got %d", n)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/student-forum-api/internal/database"
	"github.com/student-forum-api/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// articleSelect joins the author and the computed comment count
const articleSelect = `
	SELECT a.id, a.title, a.content, a.image_url, a.user_id,
		u.first_name, u.last_name, u.email,
		a.rating_positive, a.rating_negative, a.views,
		(SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id),
		a.created_at, a.updated_at
	FROM articles a
	JOIN users u ON u.id = a.user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.UserID,
		&a.User.FirstName, &a.User.LastName, &a.User.Email,
		&a.RatingPositive, &a.RatingNegative, &a.Views, &a.CommentCount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.User.ID = a.UserID
	return &a, nil
}

// Create inserts a new article. Counters start at zero.
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (id, title, content, image_url, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Content, article.ImageURL, article.UserID,
		article.CreatedAt, article.UpdatedAt,
	)
	if uniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// Update writes the editable fields only; rating columns are owned by the vote ledger
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles SET title = $2, content = $3, image_url = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Content, article.ImageURL, time.Now(),
	)
	if uniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an article; comments and votes cascade
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (r *articleRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE articles SET views = views + 1 WHERE id = $1", id)
	return err
}

// Exists checks if an article with the given ID exists
func (r *articleRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// TitleExists checks if another article already uses the title.
// excludeID may be empty.
func (r *articleRepo) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM articles WHERE title = $1)", title,
		).Scan(&exists)
	} else {
		err = r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM articles WHERE title = $1 AND id <> $2)", title, excludeID,
		).Scan(&exists)
	}
	return exists, err
}

// List returns articles newest first
func (r *articleRepo) List(ctx context.Context) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, articleSelect+` ORDER BY a.created_at DESC, a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

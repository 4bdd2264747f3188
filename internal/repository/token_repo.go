package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/student-forum-api/internal/database"
	"github.com/student-forum-api/internal/models"
)

type tokenRepo struct {
	db *database.DB
}

// NewTokenRepo creates a new token repository
func NewTokenRepo(db *database.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *models.AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		token.Token, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if foreignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// GetUserByToken resolves an unexpired token to its owner and the token expiry
func (r *tokenRepo) GetUserByToken(ctx context.Context, token string, now time.Time) (*models.User, time.Time, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.created_at, u.updated_at,
			t.expires_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1 AND t.expires_at > $2
	`
	var user models.User
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return &user, expiresAt, nil
}

func (r *tokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteExpired removes every token that expired at or before now
func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/student-forum-api/internal/database"
	"github.com/student-forum-api/internal/models"
)

// voteTables maps a target kind to its target table, vote table and FK column
type voteTables struct {
	target string
	votes  string
	fk     string
}

var tablesByKind = map[models.TargetKind]voteTables{
	models.TargetArticle: {target: "articles", votes: "article_votes", fk: "article_id"},
	models.TargetComment: {target: "comments", votes: "comment_votes", fk: "comment_id"},
}

func tablesFor(kind models.TargetKind) (voteTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return voteTables{}, fmt.Errorf("unknown vote target kind %q", kind)
	}
	return t, nil
}

// voteRepo is the PostgreSQL vote ledger
type voteRepo struct {
	db *database.DB
}

// NewVoteRepo creates a new vote repository
func NewVoteRepo(db *database.DB) VoteRepository {
	return &voteRepo{db: db}
}

// Cast records a vote by userID on targetID inside one transaction.
// The target row is locked FOR UPDATE, so every vote on the same target
// serializes behind it and the counters move only by SQL deltas.
func (r *voteRepo) Cast(ctx context.Context, kind models.TargetKind, userID, targetID string, upvote bool) (models.VoteOutcome, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return "", err
	}

	var outcome models.VoteOutcome
	err = r.db.InTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, t.target), targetID,
		).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock %s: %w", t.target, err)
		}

		var voteID string
		var current bool
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT id, is_upvote FROM %s WHERE user_id = $1 AND %s = $2`, t.votes, t.fk),
			userID, targetID,
		).Scan(&voteID, &current)

		now := time.Now()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s (id, user_id, %s, is_upvote, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $5)`, t.votes, t.fk),
				uuid.New().String(), userID, targetID, upvote, now,
			)
			if uniqueViolation(err) {
				return ErrConflict
			}
			if err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
			pos, neg := 0, 0
			if upvote {
				pos = 1
			} else {
				neg = 1
			}
			if err := applyDeltas(ctx, tx, t.target, targetID, pos, neg); err != nil {
				return err
			}
			outcome = models.VoteRegistered
			return nil

		case err != nil:
			return fmt.Errorf("read vote: %w", err)

		case current == upvote:
			outcome = models.VoteRejected
			return nil

		default:
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s SET is_upvote = $2, updated_at = $3 WHERE id = $1`, t.votes),
				voteID, upvote, now,
			)
			if err != nil {
				return fmt.Errorf("flip vote: %w", err)
			}
			pos, neg := 1, -1
			if !upvote {
				pos, neg = -1, 1
			}
			if err := applyDeltas(ctx, tx, t.target, targetID, pos, neg); err != nil {
				return err
			}
			outcome = models.VoteChanged
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// applyDeltas moves both counters in a single statement
func applyDeltas(ctx context.Context, tx *sql.Tx, table, id string, pos, neg int) error {
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET rating_positive = rating_positive + $2,
			rating_negative = rating_negative + $3 WHERE id = $1`, table),
		id, pos, neg,
	)
	if err != nil {
		return fmt.Errorf("update counters: %w", err)
	}
	return nil
}

// Get returns the user's vote on a target, or nil when there is none
func (r *voteRepo) Get(ctx context.Context, kind models.TargetKind, userID, targetID string) (*models.Vote, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	vote := models.Vote{Kind: kind}
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, user_id, %s, is_upvote, created_at, updated_at
			FROM %s WHERE user_id = $1 AND %s = $2`, t.fk, t.votes, t.fk),
		userID, targetID,
	).Scan(&vote.ID, &vote.UserID, &vote.TargetID, &vote.IsUpvote, &vote.CreatedAt, &vote.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Count returns the number of vote rows of a kind
func (r *voteRepo) Count(ctx context.Context, kind models.TargetKind) (int, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	var count int
	err = r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.votes)).Scan(&count)
	return count, err
}

package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/repository"
	"github.com/student-forum-api/internal/validation"
)

// voteService is the concrete implementation of VoteService
type voteService struct {
	votes repository.VoteRepository
	log   zerolog.Logger
}

func newVoteService(votes repository.VoteRepository, log zerolog.Logger) *voteService {
	return &voteService{
		votes: votes,
		log:   log.With().Str("service", "vote").Logger(),
	}
}

// CastVote validates the action keyword, then the target, then applies the
// vote through the ledger. Nothing is read or written for an invalid action.
func (s *voteService) CastVote(ctx context.Context, kind models.TargetKind, userID, targetID, action string) (models.VoteOutcome, error) {
	act := models.VoteAction(action)
	if !models.ValidActions[act] {
		return "", ErrInvalidAction
	}

	// Ids are UUIDs; anything else cannot name a row
	if !validation.IsValidUUID(targetID) {
		return "", notFound(kind)
	}

	outcome, err := s.votes.Cast(ctx, kind, userID, targetID, act.IsUpvote())
	if errors.Is(err, repository.ErrNotFound) {
		return "", notFound(kind)
	}
	if err != nil {
		s.log.Error().
			Err(err).
			Str("kind", string(kind)).
			Str("target_id", targetID).
			Str("user_id", userID).
			Msg("Vote failed")
		return "", err
	}

	if outcome == models.VoteRejected {
		return outcome, &DuplicateVoteError{Kind: kind, Action: act}
	}

	s.log.Debug().
		Str("kind", string(kind)).
		Str("target_id", targetID).
		Str("user_id", userID).
		Str("outcome", string(outcome)).
		Msg("Vote recorded")

	return outcome, nil
}

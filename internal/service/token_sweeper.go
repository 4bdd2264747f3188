package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/repository"
)

// tokenSweeper periodically deletes expired bearer tokens
type tokenSweeper struct {
	tokens   repository.TokenRepository
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func newTokenSweeper(tokens repository.TokenRepository, interval time.Duration, log zerolog.Logger) *tokenSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &tokenSweeper{
		tokens:   tokens,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("service", "token_sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called. It blocks.
func (s *tokenSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().Dur("interval", s.interval).Msg("Token sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Token sweeper stopping")
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Stop cancels the loop and waits for it to return
func (s *tokenSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.log.Info().Msg("Token sweeper stopped")
}

// Sweep deletes expired tokens once and returns how many were removed
func (s *tokenSweeper) Sweep(ctx context.Context) int64 {
	removed, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to delete expired tokens")
		return 0
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("Expired tokens deleted")
	}
	return removed
}

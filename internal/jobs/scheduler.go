// Package jobs runs the external cleanup the auth subsystem itself never
// performs: token expiry is checked lazily at verification time, and this
// sweeper only bounds how long expired rows linger.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"restock/api/internal/repository"
)

type Scheduler struct {
	cron      *cron.Cron
	tokens    *repository.TokenRepository
	retention time.Duration
	log       zerolog.Logger
}

func NewScheduler(tokens *repository.TokenRepository, retention time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		tokens:    tokens,
		retention: retention,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.sweepExpiredTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish, bounded by a short timeout.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

// sweepExpiredTokens deletes refresh-token rows that expired before the
// retention window. Rows inside the window stay for audit.
func (s *Scheduler) sweepExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep expired refresh tokens failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("swept expired refresh tokens")
}

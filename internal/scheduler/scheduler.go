// Package scheduler wires the periodic maintenance jobs: pruning failed
// login attempts that have aged out of the rolling ban window, and
// deactivating subscriptions whose end date has passed. Both jobs are
// idempotent, so an overlapping or missed run is harmless.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AccessMaintainer is the slice of the access service the cleanup job needs.
type AccessMaintainer interface {
	CleanupStaleFailedLogins(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionMaintainer is the slice of the subscription service the
// expiry job needs.
type SubscriptionMaintainer interface {
	Expire(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron runner for background maintenance.
type Scheduler struct {
	cron    *cron.Cron
	access  AccessMaintainer
	subs    SubscriptionMaintainer
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a Scheduler with registered jobs. cleanupSpec and expireSpec
// are standard five-field cron expressions. Jobs run with a per-run
// timeout so a stuck database cannot pile up runners.
func New(access AccessMaintainer, subs SubscriptionMaintainer, cleanupSpec, expireSpec string, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		access:  access,
		subs:    subs,
		timeout: 2 * time.Minute,
		log:     log,
	}
	if _, err := s.cron.AddFunc(cleanupSpec, s.runCleanup); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(expireSpec, s.runExpire); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops scheduling new runs and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.access.CleanupStaleFailedLogins(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("failed login cleanup")
		return
	}
	s.log.Info().Int64("removed", n).Msg("failed login cleanup")
}

func (s *Scheduler) runExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.subs.Expire(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("subscription expiry sweep")
		return
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("subscription expiry sweep")
	}
}

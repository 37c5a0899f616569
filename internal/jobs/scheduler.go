package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"userauth/api/internal/cache"
	"userauth/api/internal/config"
)

const sweepLockKey = "userauth:sweeper:lock"

// TokenSweeper clears stored refresh tokens whose expiry has passed.
type TokenSweeper interface {
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	users  TokenSweeper
	locker *cache.Locker
	cfg    config.SweeperConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewScheduler builds the sweeper schedule. With a nil locker every replica
// sweeps on each tick.
func NewScheduler(users TokenSweeper, locker *cache.Locker, cfg config.SweeperConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		users:  users,
		locker: locker,
		cfg:    cfg,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("refresh token sweeper disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runSweep); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("sweeper did not finish before shutdown")
	}
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL())
	defer cancel()

	if _, err := s.SweepExpiredSessions(ctx); err != nil {
		s.log.Error().Err(err).Msg("refresh token sweep failed")
	}
}

// SweepExpiredSessions clears expired refresh tokens once. It returns 0
// without touching the store when another replica holds the sweep lock.
func (s *Scheduler) SweepExpiredSessions(ctx context.Context) (int64, error) {
	if s.locker != nil {
		lease, err := s.locker.TryAcquire(ctx, sweepLockKey, s.lockTTL())
		if err != nil {
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if lease == nil {
			s.log.Debug().Msg("sweep lock held elsewhere, skipping")
			return 0, nil
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, cache.ErrLockNotHeld) {
				s.log.Warn().Err(err).Msg("release sweep lock failed")
			}
		}()
	}

	cleared, err := s.users.ClearExpiredRefreshTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if cleared > 0 {
		s.log.Info().Int64("cleared", cleared).Msg("expired refresh tokens cleared")
	}
	return cleared, nil
}

func (s *Scheduler) lockTTL() time.Duration {
	if s.cfg.LockTTL <= 0 {
		return time.Minute
	}
	return s.cfg.LockTTL
}

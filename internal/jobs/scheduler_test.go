package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/cache"
	"userauth/api/internal/config"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
)

func seedUser(t *testing.T, repo *repository.MemoryUserRepository, email string, expiresAt time.Time) string {
	t.Helper()
	ctx := context.Background()
	id, err := repo.Create(ctx, models.NewUser{Email: email, FullName: "U", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, repo.SetRefreshToken(ctx, id, "token-"+email, expiresAt))
	return id
}

func newLocker(t *testing.T) (*miniredis.Miniredis, *cache.Locker) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, cache.NewLocker(client)
}

func sweeperConfig() config.SweeperConfig {
	return config.SweeperConfig{Enabled: true, Schedule: "0 */15 * * * *", LockTTL: time.Minute}
}

func TestSweepExpiredSessions(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	now := time.Now().UTC()
	expired := seedUser(t, repo, "old@example.com", now.Add(-time.Minute))
	valid := seedUser(t, repo, "new@example.com", now.Add(time.Hour))

	srv, locker := newLocker(t)
	s := NewScheduler(repo, locker, sweeperConfig(), zerolog.Nop())

	cleared, err := s.SweepExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	user, err := repo.GetByID(context.Background(), expired)
	require.NoError(t, err)
	assert.False(t, user.HasRefreshToken())
	assert.Nil(t, user.RefreshTokenExpiresAt)

	user, err = repo.GetByID(context.Background(), valid)
	require.NoError(t, err)
	assert.True(t, user.HasRefreshToken())

	assert.False(t, srv.Exists(sweepLockKey))
}

func TestSweepExpiredSessions_SkipsWhenLocked(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	expired := seedUser(t, repo, "old@example.com", time.Now().UTC().Add(-time.Minute))

	srv, locker := newLocker(t)
	require.NoError(t, srv.Set(sweepLockKey, "other-replica"))

	s := NewScheduler(repo, locker, sweeperConfig(), zerolog.Nop())
	cleared, err := s.SweepExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cleared)

	user, err := repo.GetByID(context.Background(), expired)
	require.NoError(t, err)
	assert.True(t, user.HasRefreshToken())

	got, err := srv.Get(sweepLockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-replica", got)
}

func TestSweepExpiredSessions_WithoutLocker(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	seedUser(t, repo, "old@example.com", time.Now().UTC().Add(-time.Minute))

	s := NewScheduler(repo, nil, sweeperConfig(), zerolog.Nop())
	cleared, err := s.SweepExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	cfg := sweeperConfig()
	cfg.Schedule = "not a schedule"

	s := NewScheduler(repository.NewMemoryUserRepository(), nil, cfg, zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(repository.NewMemoryUserRepository(), nil, sweeperConfig(), zerolog.Nop())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	disabled := sweeperConfig()
	disabled.Enabled = false
	assert.NoError(t, NewScheduler(repository.NewMemoryUserRepository(), nil, disabled, zerolog.Nop()).Start())
}

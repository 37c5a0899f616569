package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg, err := newPoolConfig(config.PostgresConfig{
		DSN:             "postgres://u:p@localhost:5432/userauth?sslmode=disable",
		MaxOpen:         12,
		MaxIdle:         3,
		ConnMaxLifetime: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(12), cfg.MaxConns)
	assert.Equal(t, int32(3), cfg.MinConns)
	assert.Equal(t, 10*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, "userauth-api", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPoolConfig_KeepsDSNApplicationName(t *testing.T) {
	cfg, err := newPoolConfig(config.PostgresConfig{
		DSN: "postgres://u:p@localhost:5432/userauth?application_name=ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPoolConfig_BadDSN(t *testing.T) {
	_, err := newPoolConfig(config.PostgresConfig{DSN: "postgres://u:p@localhost:notaport/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres user store: parse dsn")
}

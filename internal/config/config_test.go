package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SQL_ENGINE", "postgres")
	t.Setenv("SQL_DATABASE", "shop")
	t.Setenv("SQL_USER", "shop")
	t.Setenv("SQL_PASSWORD", "hunter2")
	t.Setenv("SQL_HOST", "db")
	t.Setenv("SQL_PORT", "5432")
}

func TestLoadRuntimeDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadRuntime()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.ListenPort)
	assert.Equal(t, "/home/app/web/staticfiles", cfg.StaticRoot)
	assert.Equal(t, "/home/app/web/migrations", cfg.MigrationsDir)
	assert.False(t, cfg.Production)
	assert.Equal(t, "gunicorn backend.wsgi:application", cfg.ServerCommand)
	assert.Equal(t, 30, cfg.WaitAttempts)
	assert.Zero(t, cfg.WaitDelay)
}

func TestLoadRuntimeReadsDatabaseContract(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SQL_PORT", "6543")

	cfg, err := LoadRuntime()
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Database.Name)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestDSNRendering(t *testing.T) {
	db := DatabaseConfig{
		Engine:   "postgres",
		Name:     "shop",
		User:     "shop",
		Password: "hunter2",
		Host:     "db",
		Port:     5432,
	}
	assert.Equal(t, "postgres://shop:hunter2@db:5432/shop?sslmode=disable", db.DSN())
}

func TestDSNEscapesCredentials(t *testing.T) {
	db := DatabaseConfig{
		Engine:   "postgres",
		Name:     "shop",
		User:     "shop",
		Password: "p@ss/word",
		Host:     "db",
		Port:     5432,
	}
	assert.Equal(t, "postgres://shop:p%40ss%2Fword@db:5432/shop?sslmode=disable", db.DSN())
}

// Builds never need the secret; a production container does. The failure has
// to happen at startup, not at build time.
func TestProductionRequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRODUCTION", "true")

	_, err := LoadRuntime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")

	t.Setenv("SECRET_KEY", "s3cret")
	cfg, err := LoadRuntime()
	require.NoError(t, err)
	assert.True(t, cfg.Production)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := RuntimeConfig{ListenPort: 0}
	assert.Error(t, cfg.Validate())

	cfg.ListenPort = 70000
	assert.Error(t, cfg.Validate())

	cfg.ListenPort = 8000
	assert.NoError(t, cfg.Validate())
}

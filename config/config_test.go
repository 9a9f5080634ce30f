package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/ctfhub?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RUN_MIGRATIONS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.RunMigrations)
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/ctfhub")
	t.Setenv("JWT_SECRET_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestLoad_PortValidation(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("SERVER_PORT", "notaport")
	_, err := Load()
	assert.ErrorContains(t, err, "SERVER_PORT")

	t.Setenv("SERVER_PORT", "70000")
	_, err = Load()
	assert.ErrorContains(t, err, "between 1 and 65535")

	t.Setenv("SERVER_PORT", "9090")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestLoad_MigrationsToggle(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("RUN_MIGRATIONS", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.RunMigrations)

	t.Setenv("RUN_MIGRATIONS", "maybe")
	_, err = Load()
	assert.ErrorContains(t, err, "RUN_MIGRATIONS")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load([]string{"-c", "", "-env", ""})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Address)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Zero(t, opts.TaskRetention)
	assert.False(t, opts.TaskCleanupEnabled())
	assert.Equal(t, time.Hour, opts.CleanupInterval)
	assert.False(t, opts.TLSEnabled())
}

func TestLoad_FileOverridesFlags(t *testing.T) {
	path := writeFile(t, "config.json", `{"address":":9090","log_level":"debug","task_retention":"48h"}`)

	opts, err := Load([]string{"-a", ":7070", "-c", path, "-env", ""})
	require.NoError(t, err)
	assert.Equal(t, ":9090", opts.Address)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, 48*time.Hour, opts.TaskRetention)
	assert.True(t, opts.TaskCleanupEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"address":":9090","rate_limit_rps":5}`)
	t.Setenv("SERVER_ADDRESS", ":6060")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CLEANUP_INTERVAL", "15m")

	opts, err := Load([]string{"-c", path, "-env", ""})
	require.NoError(t, err)
	assert.Equal(t, ":6060", opts.Address)
	assert.Equal(t, 2.5, opts.RateLimitRPS)
	assert.Equal(t, 15*time.Minute, opts.CleanupInterval)
}

func TestLoad_DotenvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "DATABASE_DSN=postgres://localhost/habitxp_dotenv\n")
	t.Setenv("DATABASE_DSN", "")
	os.Unsetenv("DATABASE_DSN")

	opts, err := Load([]string{"-c", "", "-env", envFile})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/habitxp_dotenv", opts.DatabaseDSN)
}

func TestLoad_BadFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"cleanup_interval":"soon"}`)

	_, err := Load([]string{"-c", path, "-env", ""})
	assert.Error(t, err)
}

func TestLoad_TLSNeedsBoth(t *testing.T) {
	t.Setenv("TLS_CERT", "server.crt")

	_, err := Load([]string{"-c", "", "-env", ""})
	assert.Error(t, err)
}

func TestLoad_NegativeRetention(t *testing.T) {
	_, err := Load([]string{"-c", "", "-env", "", "-task-retention", "-1h"})
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAINTENANCE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8085", cfg.HTTPAddress())
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Replication.Timeout)
	assert.Equal(t, time.UTC, cfg.ReportLocation())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAINTENANCE_JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "jwt secret required")
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
auth:
  jwtSecret: from-file
store:
  driver: Postgres
database:
  dsn: postgres://localhost/maint
replication:
  timeout: 2s
report:
  timezone: Europe/Helsinki
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAINTENANCE_REPLICATION_RETRY_BACKOFF", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Replication.Timeout)
	assert.Equal(t, time.Second, cfg.Replication.RetryBackoff)
	assert.Equal(t, "Europe/Helsinki", cfg.ReportLocation().String())
}

func TestValidateDriverRequirements(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "s"

	cfg.Store.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "database dsn required")

	cfg.Store.Driver = "redis"
	cfg.Redis.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "redis addr required")

	cfg.Store.Driver = "etcd"
	assert.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg.Store.Driver = "memory"
	cfg.Report.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "report timezone")
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 12*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.RememberTTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.Reset.TTL)
	require.Equal(t, "eventplaza", cfg.Auth.Reset.Issuer)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
server:
  port: 9000
  log_level: debug
  base_url: https://events.example.com
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
    database: eventplaza
    username: plaza
    password: secret
auth:
  session:
    ttl: 2h
  reset:
    secret: super-secret
email:
  smtp:
    enabled: true
    host: smtp.example.com
    port: 2525
    from: noreply@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "https://events.example.com", cfg.Server.BaseURL)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 2*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, "super-secret", cfg.Auth.Reset.Secret)
	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)

	db := cfg.Database.DatabaseOptions()
	require.Equal(t, "db.internal", db.Host)
	require.Equal(t, 5433, db.Port)
	require.Equal(t, "eventplaza", db.Name)
	require.Equal(t, "plaza", db.User)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("EVENTPLAZA_SERVER_PORT", "9100")
	t.Setenv("EVENTPLAZA_AUTH_RESET_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.Reset.Secret)
}

func TestSessionServiceConfigDefaults(t *testing.T) {
	var auth AuthConfig

	cfg := auth.SessionServiceConfig()
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, 720*time.Hour, cfg.RememberTTL)
	require.Equal(t, 48, cfg.TokenLength)

	reset := auth.ResetTokenServiceConfig()
	require.Equal(t, 30*time.Minute, reset.TTL)
}

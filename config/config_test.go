package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "HTTP_ADDR", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "AUTO_MIGRATE",
	"JWT_SECRET", "JWT_ISSUER", "JWT_EXPIRES_IN", "COOKIE_DOMAIN",
	"ACTIVATION_CODE_TTL_MINUTES", "ACTIVATION_MAX_ATTEMPTS",
	"RESEND_API_KEY", "MAIL_FROM", "APP_BASE_URL", "GOOGLE_CLIENT_ID", "GOOGLE_JWKS_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parsfix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "parsfix", cfg.JWTIssuer)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 15*time.Minute, cfg.ActivationCodeTTL())
	assert.Equal(t, 5, cfg.ActivationMaxAttempts)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.AutoMigrate)
}

func TestLoad_DevelopmentIsOptIn(t *testing.T) {
	tests := []struct {
		name    string
		appEnv  string
		wantDev bool
	}{
		{name: "unset", appEnv: "", wantDev: false},
		{name: "staging", appEnv: "staging", wantDev: false},
		{name: "development", appEnv: "development", wantDev: true},
		{name: "mixed case", appEnv: "Development", wantDev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("APP_ENV", tt.appEnv)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDev, cfg.IsDevelopment())
		})
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
app:
  env: production
  http_addr: ":9000"
dependencies:
  database_url: postgres://file/parsfix
  redis_url: redis://file:6379/0
  auto_migrate: true
session:
  expires_in: 12h
activation:
  code_ttl_minutes: 10
  max_attempts: 3
google:
  client_id: file-client
`)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("ACTIVATION_MAX_ATTEMPTS", "7")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://file/parsfix", cfg.DatabaseURL)
	assert.Equal(t, "redis://file:6379/0", cfg.RedisURL)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 10*time.Minute, cfg.ActivationCodeTTL())
	assert.Equal(t, 7, cfg.ActivationMaxAttempts)
	assert.Equal(t, "file-client", cfg.GoogleClientID)
}

func TestLoad_LenientSessionTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "90m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeFile(t, "app: [unclosed"))
	assert.ErrorContains(t, err, "parse config file")
}

func TestLoad_RejectsNonPositiveActivationSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACTIVATION_MAX_ATTEMPTS", "0")

	_, err := Load("")
	assert.Error(t, err)
}

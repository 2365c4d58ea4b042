package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("BASIC_AUTH_CREDS", "")
	t.Setenv("ENVIRONMENT", "")

	cfg := NewConfig(fxtest.NewLifecycle(t), zap.NewNop())

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 5, cfg.Concurrency())
	assert.Equal(t, "telegram", cfg.NotifierPlatform)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBase)
	assert.Nil(t, cfg.GetCreds(), "auth is off without credentials")
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("BASIC_AUTH_CREDS", "alice:pw1, bob : pw2")
	t.Setenv("POLL_INTERVAL_SECS", "60")
	t.Setenv("POLL_CONCURRENCY", "0")
	t.Setenv("TELEGRAM_THREAD_ID", "12")

	cfg := NewConfig(fxtest.NewLifecycle(t), zap.NewNop())

	assert.Equal(t, time.Minute, cfg.PollInterval())
	assert.Equal(t, 1, cfg.Concurrency())
	assert.Equal(t, 12, cfg.Telegram.ThreadID)
	assert.Equal(t, map[string]string{"alice": "pw1", "bob": "pw2"}, cfg.GetCreds())
}

func TestNewConfig_BadCreds(t *testing.T) {
	t.Setenv("BASIC_AUTH_CREDS", "no-colon")
	t.Setenv("ENVIRONMENT", "production")
	assert.Panics(t, func() { NewConfig(fxtest.NewLifecycle(t), zap.NewNop()) })

	t.Setenv("ENVIRONMENT", "development")
	cfg := NewConfig(fxtest.NewLifecycle(t), zap.NewNop())
	require.NotNil(t, cfg.GetCreds())
	assert.Equal(t, "password", cfg.GetCreds()["admin"])
}

package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.StorePostgres, cfg.DB.Driver)
	assert.Equal(t, "chromium", cfg.PDF.Engine)
	assert.Equal(t, 10*time.Second, cfg.SMS.Timeout)
	assert.False(t, cfg.SMS.Enabled)
	assert.Equal(t, "postgres://postgres:@localhost:5432/payadvice?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, config.StoreMemory, cfg.DB.Driver)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.App.CORSOrigins)
	assert.True(t, cfg.SMS.Enabled)
	assert.True(t, cfg.Logger().Enabled(t.Context(), slog.LevelDebug))
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := config.Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

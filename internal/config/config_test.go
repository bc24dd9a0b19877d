package config

import (
	"testing"
	"time"

	"signals-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ledger.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.Equal(t, "USD", cfg.Engine.Currency)
	assert.Equal(t, models.CancelPolicyNone, cfg.Engine.ActiveCancelPolicy)
	assert.Zero(t, cfg.Engine.PendingTTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "notifications", cfg.Notify.Queue)
	assert.False(t, cfg.Formance.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Listener.LookbackWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ACTIVE_CANCEL_POLICY", "refund")
	t.Setenv("PENDING_INVESTMENT_TTL", "48h")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.CancelPolicyRefund, cfg.Engine.ActiveCancelPolicy)
	assert.Equal(t, 48*time.Hour, cfg.Engine.PendingTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("LISTENER_POLLING_INTERVAL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "LISTENER_POLLING_INTERVAL")
	})

	t.Run("cancel policy", func(t *testing.T) {
		t.Setenv("ACTIVE_CANCEL_POLICY", "forfeit")
		_, err := Load()
		assert.ErrorContains(t, err, "ACTIVE_CANCEL_POLICY")
	})

	t.Run("formance", func(t *testing.T) {
		t.Setenv("FORMANCE_ENABLED", "true")
		_, err := Load()
		assert.ErrorContains(t, err, "FORMANCE_STACK_URL")
	})
}

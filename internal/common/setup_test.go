package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *models.Config {
	return &models.Config{
		Database: models.DatabaseConfig{
			Path:         ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			PingTimeout:  time.Second,
		},
		Engine: models.EngineConfig{
			Currency:           "USD",
			ActiveCancelPolicy: models.CancelPolicyNone,
		},
	}
}

func TestInitializeServicesWithoutPrime(t *testing.T) {
	t.Setenv("PRIME_ACCESS_KEY", "")
	ctx := context.Background()

	services, err := InitializeServices(ctx, testConfig())
	require.NoError(t, err)
	defer services.Close()

	assert.Nil(t, services.PrimeService)
	assert.Nil(t, services.Mirror)
	assert.Nil(t, services.QueueClient)
	assert.Error(t, services.RequirePrime())

	_, err = services.Store.CreateUser(ctx, "u1", "Ada", "ada@example.com")
	require.NoError(t, err)
	_, err = services.Api.Deposit(ctx, "u1", decimal.NewFromInt(100), "wire", "")
	require.NoError(t, err)

	reports, err := services.Reconciler(false).ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Balanced())
}

func TestInitializeServicesSeedsPlansFile(t *testing.T) {
	t.Setenv("PRIME_ACCESS_KEY", "")
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "2024-03"
plans:
  - id: micro
    name: Micro
    min_amount: "50"
    max_amount: "150"
    roi_percentage: 500
    duration_days: 1
`), 0o600))

	cfg := testConfig()
	cfg.PlansFile = path

	services, err := InitializeServices(context.Background(), cfg)
	require.NoError(t, err)
	defer services.Close()

	plan, err := services.Catalog.GetPlan(context.Background(), "micro")
	require.NoError(t, err)
	assert.Equal(t, "Micro", plan.Name)
}

func TestInitializeServicesRejectsBadPlansFile(t *testing.T) {
	t.Setenv("PRIME_ACCESS_KEY", "")
	cfg := testConfig()
	cfg.PlansFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := InitializeServices(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSelectUsers(t *testing.T) {
	t.Setenv("PRIME_ACCESS_KEY", "")
	ctx := context.Background()

	services, err := InitializeServices(ctx, testConfig())
	require.NoError(t, err)
	defer services.Close()

	for _, u := range []struct{ id, name, email string }{
		{"u1", "Ada", "ada@example.com"},
		{"u2", "Linus", "linus@example.com"},
	} {
		_, err := services.Store.CreateUser(ctx, u.id, u.name, u.email)
		require.NoError(t, err)
	}

	all, err := SelectUsers(ctx, services.Store, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := SelectUsers(ctx, services.Store, "linus@example.com")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "u2", one[0].Id)

	_, err = SelectUsers(ctx, services.Store, "nobody@example.com")
	assert.Error(t, err)
}

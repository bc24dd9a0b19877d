package plans

import (
	"context"
	"errors"
	"testing"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanStore struct {
	plans []models.InvestmentPlan
	err   error
}

func (f *fakePlanStore) ListPlans(_ context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.InvestmentPlan
	for _, p := range f.plans {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlanStore) GetPlan(_ context.Context, planId string) (*models.InvestmentPlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.plans {
		if p.Id == planId {
			return &p, nil
		}
	}
	return nil, &store.NotFoundError{Kind: "plan", Id: planId}
}

func (f *fakePlanStore) UpsertPlan(_ context.Context, plan models.InvestmentPlan) error {
	f.plans = append(f.plans, plan)
	return nil
}

func plan(id string, min, max, roi int64, days int) models.InvestmentPlan {
	return models.InvestmentPlan{
		Id: id, Name: id, MinAmount: decimal.NewFromInt(min), MaxAmount: decimal.NewFromInt(max),
		RoiPercentage: roi, DurationDays: days, IsActive: true,
	}
}

func TestListActivePlans_OrderedByMinAmount(t *testing.T) {
	inactive := plan("legacy", 1, 10, 100, 1)
	inactive.IsActive = false
	catalog := NewCatalog(&fakePlanStore{plans: []models.InvestmentPlan{
		plan("gold", 5000, 10000, 1500, 7),
		inactive,
		plan("bronze", 200, 2000, 1000, 1),
	}})

	plans, err := catalog.ListActivePlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "bronze", plans[0].Id)
	assert.Equal(t, "gold", plans[1].Id)
}

func TestListActivePlans_FallsBackToDefaults(t *testing.T) {
	for name, s := range map[string]*fakePlanStore{
		"empty":       {},
		"unavailable": {err: &store.StoreUnavailableError{Op: "query plans", Err: errors.New("disk I/O error")}},
	} {
		t.Run(name, func(t *testing.T) {
			plans, err := NewCatalog(s).ListActivePlans(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DefaultPlans(), plans)
		})
	}
}

func TestDefaultPlansAreValidAndOrdered(t *testing.T) {
	defaults := DefaultPlans()
	require.NotEmpty(t, defaults)
	for i, p := range defaults {
		assert.NoError(t, p.Validate())
		if i > 0 {
			assert.True(t, defaults[i-1].MinAmount.LessThan(p.MinAmount))
		}
	}
}

func TestGetPlan(t *testing.T) {
	ctx := context.Background()

	stored := NewCatalog(&fakePlanStore{plans: []models.InvestmentPlan{plan("bronze", 200, 2000, 1000, 1)}})
	p, err := stored.GetPlan(ctx, "bronze")
	require.NoError(t, err)
	assert.Equal(t, "bronze", p.Id)

	_, err = stored.GetPlan(ctx, "starter")
	assert.ErrorIs(t, err, store.ErrNotFound, "defaults are not consulted while the store has plans")

	fallback := NewCatalog(&fakePlanStore{})
	p, err = fallback.GetPlan(ctx, "starter")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.RoiPercentage)

	_, err = fallback.GetPlan(ctx, "")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestValidateAmount(t *testing.T) {
	p := plan("bronze", 200, 2000, 1000, 1)

	tests := []struct {
		amount  int64
		wantErr string
	}{
		{200, ""},
		{2000, ""},
		{1000, ""},
		{199, "minimum investment is 200"},
		{2001, "maximum investment is 2000"},
		{0, "investment amount must be positive"},
		{-5, "investment amount must be positive"},
	}

	for _, tt := range tests {
		err := ValidateAmount(p, decimal.NewFromInt(tt.amount))
		if tt.wantErr == "" {
			assert.NoError(t, err, "amount %d", tt.amount)
			continue
		}
		require.Error(t, err, "amount %d", tt.amount)
		assert.ErrorIs(t, err, store.ErrValidation)
		assert.Contains(t, err.Error(), tt.wantErr)
	}
}

func TestComputeExpectedReturn(t *testing.T) {
	got := ComputeExpectedReturn(plan("bronze", 200, 2000, 1000, 1), decimal.NewFromInt(200))
	assert.True(t, decimal.NewFromInt(2000).Equal(got.Profit), "profit %s", got.Profit)
	assert.True(t, decimal.NewFromInt(2200).Equal(got.TotalReturn), "total %s", got.TotalReturn)
	assert.True(t, decimal.NewFromInt(2000).Equal(got.DailyReturn), "daily %s", got.DailyReturn)

	got = ComputeExpectedReturn(plan("gold", 1000, 5000, 1200, 3), decimal.NewFromInt(1000))
	assert.True(t, decimal.NewFromInt(12000).Equal(got.Profit))
	assert.True(t, decimal.NewFromInt(13000).Equal(got.TotalReturn))
	assert.True(t, decimal.NewFromInt(4000).Equal(got.DailyReturn))

	// Non-terminating division rounds to 8 places and repeats exactly
	odd := plan("odd", 1, 1000, 100, 3)
	first := ComputeExpectedReturn(odd, decimal.RequireFromString("100.01"))
	second := ComputeExpectedReturn(odd, decimal.RequireFromString("100.01"))
	assert.Equal(t, "33.33666667", first.DailyReturn.String())
	assert.Equal(t, first, second)
}

func TestParsePlans(t *testing.T) {
	data := []byte(`
version: "2025.2"
plans:
  - id: premium
    name: Premium
    min_amount: "10001"
    max_amount: "50000"
    roi_percentage: 1500
    duration_days: 7
  - id: starter
    name: Starter
    min_amount: "200"
    max_amount: "2000"
    roi_percentage: 1000
    duration_days: 1
    active: false
`)
	version, plans, err := ParsePlans(data)
	require.NoError(t, err)
	assert.Equal(t, "2025.2", version)
	require.Len(t, plans, 2)
	assert.Equal(t, "starter", plans[0].Id)
	assert.False(t, plans[0].IsActive)
	assert.True(t, plans[1].IsActive)

	_, _, err = ParsePlans([]byte("plans:\n  - id: x\n    min_amount: \"10\"\n    max_amount: \"5\"\n    roi_percentage: 10\n    duration_days: 1\n"))
	assert.Error(t, err)

	_, _, err = ParsePlans([]byte("plans: []\n"))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	s := &fakePlanStore{}
	require.NoError(t, NewCatalog(s).Seed(context.Background(), DefaultPlans()))
	assert.Len(t, s.plans, len(DefaultPlans()))
}

func TestSeed_RejectsInvalidPlanBeforeWriting(t *testing.T) {
	s := &fakePlanStore{}
	err := NewCatalog(s).Seed(context.Background(), []models.InvestmentPlan{
		plan("ok", 100, 1000, 200, 7),
		plan("inverted", 1000, 100, 200, 7),
	})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.Empty(t, s.plans)
}

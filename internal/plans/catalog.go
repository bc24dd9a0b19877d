/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package plans

import (
	"context"
	"errors"
	"sort"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// dailyReturnPlaces is the rounding applied to the per-day share of profit.
const dailyReturnPlaces = 8

// PlanStore is the subset of the ledger store the catalog reads and seeds.
type PlanStore interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error)
	GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error)
	UpsertPlan(ctx context.Context, plan models.InvestmentPlan) error
}

// Catalog serves investment plans from the store, falling back to the
// built-in defaults when the store is unreachable or holds no active plan.
type Catalog struct {
	store PlanStore
}

func NewCatalog(store PlanStore) *Catalog {
	return &Catalog{store: store}
}

// ListActivePlans returns active plans ordered by minimum amount.
func (c *Catalog) ListActivePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	plans, err := c.store.ListPlans(ctx, true)
	if err != nil {
		zap.L().Warn("Plan store unavailable, serving default plans",
			zap.String("defaults_version", DefaultPlansVersion),
			zap.Error(err))
		return DefaultPlans(), nil
	}
	if len(plans) == 0 {
		zap.L().Warn("No active plans stored, serving default plans",
			zap.String("defaults_version", DefaultPlansVersion))
		return DefaultPlans(), nil
	}

	sortPlans(plans)
	return plans, nil
}

// GetPlan returns the stored plan, or the default plan with that id when the
// catalog is running on defaults.
func (c *Catalog) GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error) {
	if planId == "" {
		return nil, store.NewValidationError("plan_id", "plan id is required")
	}

	plan, err := c.store.GetPlan(ctx, planId)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrStoreUnavailable) {
		return nil, err
	}

	active, listErr := c.ListActivePlans(ctx)
	if listErr != nil {
		return nil, listErr
	}
	for _, p := range active {
		if p.Id == planId {
			return &p, nil
		}
	}
	return nil, &store.NotFoundError{Kind: "plan", Id: planId}
}

// Seed validates every plan and upserts them into the store. Nothing is
// written when any plan is invalid.
func (c *Catalog) Seed(ctx context.Context, plans []models.InvestmentPlan) error {
	for _, plan := range plans {
		if err := plan.Validate(); err != nil {
			return store.NewValidationError("plan", "%v", err)
		}
	}
	for _, plan := range plans {
		if err := c.store.UpsertPlan(ctx, plan); err != nil {
			return err
		}
	}
	zap.L().Info("Plan catalog seeded", zap.Int("count", len(plans)))
	return nil
}

// ValidateAmount checks amount against the plan bounds (inclusive).
func ValidateAmount(plan models.InvestmentPlan, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return store.NewValidationError("amount", "investment amount must be positive")
	}
	if amount.LessThan(plan.MinAmount) {
		return &store.ValidationError{Field: "amount", Reason: "minimum investment is " + plan.MinAmount.String()}
	}
	if amount.GreaterThan(plan.MaxAmount) {
		return &store.ValidationError{Field: "amount", Reason: "maximum investment is " + plan.MaxAmount.String()}
	}
	return nil
}

// ComputeExpectedReturn projects profit, total and per-day return. The result
// depends only on its inputs.
func ComputeExpectedReturn(plan models.InvestmentPlan, amount decimal.Decimal) models.ExpectedReturn {
	profit := amount.Mul(decimal.NewFromInt(plan.RoiPercentage)).Shift(-2)
	daily := decimal.Zero
	if plan.DurationDays > 0 {
		daily = profit.DivRound(decimal.NewFromInt(int64(plan.DurationDays)), dailyReturnPlaces)
	}
	return models.ExpectedReturn{
		Profit:      profit,
		TotalReturn: amount.Add(profit),
		DailyReturn: daily,
	}
}

func sortPlans(plans []models.InvestmentPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].MinAmount.LessThan(plans[j].MinAmount)
	})
}

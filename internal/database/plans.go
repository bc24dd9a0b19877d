package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanPlan(row rowScanner) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	var minStr, maxStr string
	if err := row.Scan(&plan.Id, &plan.Name, &minStr, &maxStr,
		&plan.RoiPercentage, &plan.DurationDays, &plan.IsActive); err != nil {
		return nil, err
	}

	var err error
	if plan.MinAmount, err = decimal.NewFromString(minStr); err != nil {
		return nil, fmt.Errorf("failed to parse min amount '%s': %w", minStr, err)
	}
	if plan.MaxAmount, err = decimal.NewFromString(maxStr); err != nil {
		return nil, fmt.Errorf("failed to parse max amount '%s': %w", maxStr, err)
	}
	return &plan, nil
}

// ListPlans returns stored plans in no particular order.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, queryListPlans, activeOnly)
	if err != nil {
		return nil, unavailable("query plans", err)
	}
	defer closeRows(rows)

	var plans []models.InvestmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan plan row: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate plan rows", err)
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error) {
	plan, err := scanPlan(s.db.QueryRowContext(ctx, queryGetPlan, planId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Kind: "plan", Id: planId}
		}
		return nil, unavailable("query plan", err)
	}
	return plan, nil
}

func (s *Service) UpsertPlan(ctx context.Context, plan models.InvestmentPlan) error {
	if err := plan.Validate(); err != nil {
		return &store.ValidationError{Field: "plan", Reason: err.Error()}
	}

	_, err := s.db.ExecContext(ctx, queryUpsertPlan, plan.Id, plan.Name,
		plan.MinAmount.String(), plan.MaxAmount.String(), plan.RoiPercentage, plan.DurationDays, plan.IsActive)
	if err != nil {
		return unavailable("upsert plan", err)
	}

	zap.L().Info("Plan saved",
		zap.String("plan_id", plan.Id),
		zap.String("name", plan.Name),
		zap.Bool("active", plan.IsActive))
	return nil
}

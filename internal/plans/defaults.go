package plans

import (
	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultPlansVersion identifies the built-in plan set served on fallback.
const DefaultPlansVersion = "2024.1"

// DefaultPlans returns a fresh copy of the built-in catalog, ordered by minimum amount.
func DefaultPlans() []models.InvestmentPlan {
	return []models.InvestmentPlan{
		defaultPlan("starter", "Starter", 200, 2000, 1000, 1),
		defaultPlan("standard", "Standard", 2001, 10000, 1200, 3),
		defaultPlan("premium", "Premium", 10001, 50000, 1500, 7),
		defaultPlan("vip", "VIP", 50001, 250000, 2000, 14),
	}
}

func defaultPlan(id, name string, min, max, roi int64, days int) models.InvestmentPlan {
	return models.InvestmentPlan{
		Id:            id,
		Name:          name,
		MinAmount:     decimal.NewFromInt(min),
		MaxAmount:     decimal.NewFromInt(max),
		RoiPercentage: roi,
		DurationDays:  days,
		IsActive:      true,
	}
}

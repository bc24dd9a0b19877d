package investment

import (
	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeStats aggregates a user's investments. Pending and cancelled
// investments contribute nothing; completed ones count their actual return,
// falling back to the expected return for rows written before it was set.
func ComputeStats(investments []models.Investment) models.InvestmentStats {
	stats := models.InvestmentStats{
		TotalInvested: decimal.Zero,
		TotalReturns:  decimal.Zero,
		TotalProfit:   decimal.Zero,
	}

	for _, inv := range investments {
		switch inv.Status {
		case models.InvestmentStatusActive:
			stats.TotalInvested = stats.TotalInvested.Add(inv.Amount)
			stats.ActiveInvestments++
		case models.InvestmentStatusCompleted:
			returned := inv.ExpectedReturn
			if inv.ActualReturn.Valid {
				returned = inv.ActualReturn.Decimal
			}
			stats.TotalInvested = stats.TotalInvested.Add(inv.Amount)
			stats.TotalReturns = stats.TotalReturns.Add(returned)
			stats.TotalProfit = stats.TotalProfit.Add(returned.Sub(inv.Amount))
			stats.CompletedInvestments++
		}
	}
	return stats
}

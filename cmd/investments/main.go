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

package main

import (
	"context"
	"flag"
	"fmt"

	"signals-ledger-go/internal/common"
	"signals-ledger-go/internal/config"
	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"go.uber.org/zap"
)

type reportStats struct {
	totalUsers           int
	totalInvestments     int
	usersWithInvestments int
}

func printUserHeader(user common.UserInfo, stats models.InvestmentStats, currency string) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Invested: %s  Returns: %s  Profit: %s  (active %d, completed %d)\n",
		common.FormatAmount(stats.TotalInvested, currency),
		common.FormatAmount(stats.TotalReturns, currency),
		common.FormatAmount(stats.TotalProfit, currency),
		stats.ActiveInvestments,
		stats.CompletedInvestments)
	common.PrintBoxSeparator(98)
}

func printInvestment(inv models.Investment, currency string, isLast bool) {
	fmt.Printf("%s %-10s %-10s %16s -> %-16s %s\n",
		common.BoxPrefix(isLast),
		inv.PlanName,
		inv.Status,
		common.FormatAmount(inv.Amount, currency),
		common.FormatAmount(inv.ExpectedReturn, currency),
		common.ShortId(inv.Id))

	detail := common.BoxDetailPrefix(isLast)
	if inv.EndDate != nil {
		fmt.Printf("%s   Matures: %s\n", detail, inv.EndDate.Format("2006-01-02 15:04"))
	}
	if inv.PaymentAddress != "" {
		fmt.Printf("%s   Pay to:  %s (%s, %s)\n", detail, inv.PaymentAddress, inv.PaymentNetwork, inv.PaymentStatus)
	}
	if inv.CancelReason != "" {
		fmt.Printf("%s   Reason:  %s\n", detail, inv.CancelReason)
	}
}

func processUser(ctx context.Context, user common.UserInfo, dbService store.LedgerStore, currency string, statusFilter string) (int, error) {
	investments, err := dbService.ListInvestmentsByUser(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get investments: %w", err)
	}

	var shown []models.Investment
	for _, inv := range investments {
		if statusFilter == "" || string(inv.Status) == statusFilter {
			shown = append(shown, inv)
		}
	}
	if len(shown) == 0 {
		return 0, nil
	}

	printUserHeader(user, investment.ComputeStats(investments), currency)
	for i, inv := range shown {
		printInvestment(inv, currency, i == len(shown)-1)
	}
	return len(shown), nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	statusFlag := flag.String("status", "", "Filter by status: pending, active, completed, cancelled (optional)")
	flag.Parse()

	if *statusFlag != "" && !models.InvestmentStatus(*statusFlag).Valid() {
		logger.Fatal("Invalid status filter", zap.String("status", *statusFlag))
	}

	logger.Info("Starting investment query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.SelectUsers(ctx, dbService, *emailFlag)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("INVESTMENTS REPORT", common.WideWidth)

	stats := reportStats{}
	for _, user := range users {
		stats.totalUsers++
		count, err := processUser(ctx, user, dbService, cfg.Engine.Currency, *statusFlag)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		if count > 0 {
			stats.usersWithInvestments++
			stats.totalInvestments += count
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d users with investments (%d total investments across %d users queried)",
		stats.usersWithInvestments, stats.totalInvestments, stats.totalUsers)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Investment query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_investments", stats.usersWithInvestments),
		zap.Int("total_investments", stats.totalInvestments))
}

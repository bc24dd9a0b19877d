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
	"signals-ledger-go/internal/database"
	"signals-ledger-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	usersWithBalances int
}

func printTransaction(tx models.Transaction, currency string, isLast bool) {
	amount := tx.Signed()
	fmt.Printf("%s %-10s %18s -> %18s  %s  %s\n",
		common.BoxPrefix(isLast),
		tx.Type,
		common.FormatAmount(amount, currency),
		common.FormatAmount(tx.BalanceAfter, currency),
		tx.CreatedAt.Format("2006-01-02 15:04:05"),
		tx.Description)
}

func printUserHeader(user common.UserInfo, balance *models.Balance) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Balance: %s (v%d, last_tx: %s, updated: %s)\n",
		common.FormatAmount(balance.Balance, balance.Currency),
		balance.Version,
		common.ShortId(balance.LastTransactionId),
		balance.UpdatedAt.Format("2006-01-02 15:04:05"))
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user common.UserInfo, dbService *database.Service, historyLimit int) (bool, error) {
	balance, err := dbService.GetBalance(ctx, user.Id)
	if err != nil {
		return false, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return false, nil
	}

	printUserHeader(user, balance)
	if historyLimit <= 0 {
		return true, nil
	}

	txs, err := dbService.GetTransactionHistory(ctx, user.Id, historyLimit, 0)
	if err != nil {
		return true, fmt.Errorf("failed to get transaction history: %w", err)
	}
	for i, tx := range txs {
		printTransaction(tx, balance.Currency, i == len(txs)-1)
	}
	return true, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	historyFlag := flag.Int("history", 5, "Number of recent transactions to show per user")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Read-only: no Prime API or notification queue needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.SelectUsers(ctx, dbService, *emailFlag)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		hasBalance, err := processUser(ctx, user, dbService, *historyFlag)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		if hasBalance {
			stats.usersWithBalances++
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d users with balances (%d users queried)",
		stats.usersWithBalances, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_balances", stats.usersWithBalances))
}

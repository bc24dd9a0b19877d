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
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/plans"

	"go.uber.org/zap"
)

// seedPlans writes the plan catalog. PLANS_FILE is already applied during
// service initialization; without it the built-in tiers are stored.
func seedPlans(ctx context.Context, services *common.Services, plansFile string) error {
	if plansFile != "" {
		return services.SeedPlans(ctx, plansFile)
	}
	if services.Config.PlansFile != "" {
		return nil
	}
	zap.L().Info("No plans file configured, seeding default plans")
	return services.Catalog.Seed(ctx, plans.DefaultPlans())
}

func printPlans(ctx context.Context, services *common.Services) error {
	catalog, err := services.Catalog.ListActivePlans(ctx)
	if err != nil {
		return err
	}

	currency := services.Config.Engine.Currency
	common.PrintHeader("INVESTMENT PLANS", common.DefaultWidth)
	for i, plan := range catalog {
		fmt.Printf("%s %-10s %-12s %14s - %-14s ROI %5d%% over %d days\n",
			common.BoxPrefix(i == len(catalog)-1),
			plan.Id,
			plan.Name,
			common.FormatAmount(plan.MinAmount, currency),
			common.FormatAmount(plan.MaxAmount, currency),
			plan.RoiPercentage,
			plan.DurationDays)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	return nil
}

// getOrCreateWallet retrieves an existing trading wallet or creates a new one
func getOrCreateWallet(ctx context.Context, services *common.Services, asset models.AssetConfig) (*models.Wallet, error) {
	wallets, err := services.PrimeService.ListWallets(ctx, services.DefaultPortfolio.Id, "TRADING", []string{asset.Symbol})
	if err != nil {
		return nil, fmt.Errorf("error listing wallets: %w", err)
	}

	if len(wallets) > 0 {
		wallet := &wallets[0]
		zap.L().Info("Using existing wallet",
			zap.String("asset", asset.Symbol),
			zap.String("wallet_name", wallet.Name),
			zap.String("wallet_id", wallet.Id))
		return wallet, nil
	}

	walletName := fmt.Sprintf("%s Trading Wallet", asset.Symbol)
	zap.L().Info("Creating new wallet",
		zap.String("asset", asset.Symbol),
		zap.String("wallet_name", walletName))

	wallet, err := services.PrimeService.CreateWallet(ctx, services.DefaultPortfolio.Id, walletName, asset.Symbol, "TRADING")
	if err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}
	return wallet, nil
}

func prepareWallets(ctx context.Context, services *common.Services) {
	if err := services.RequirePrime(); err != nil {
		zap.L().Fatal("Cannot prepare wallets", zap.Error(err))
	}

	var failed []string
	for _, asset := range services.Assets {
		wallet, err := getOrCreateWallet(ctx, services, asset)
		if err != nil {
			zap.L().Error("Failed to prepare wallet", zap.String("asset", asset.Symbol), zap.Error(err))
			fmt.Printf("✗ %s (%s): %v\n", asset.Symbol, asset.PaymentMethod, err)
			failed = append(failed, asset.Symbol)
			continue
		}
		fmt.Printf("✓ %s (%s): wallet %s\n", asset.Symbol, asset.PaymentMethod, wallet.Id)
	}

	if len(failed) > 0 {
		zap.L().Warn("Wallet preparation completed with some failures", zap.Strings("failed_assets", failed))
		return
	}
	zap.L().Info("Wallet preparation completed successfully", zap.Int("wallets", len(services.Assets)))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	plansFlag := flag.String("plans", "", "YAML plan catalog to load (default: PLANS_FILE or built-in plans)")
	walletsFlag := flag.Bool("wallets", false, "Create Prime trading wallets for every configured payment asset")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := seedPlans(ctx, services, *plansFlag); err != nil {
		zap.L().Fatal("Failed to seed plans", zap.Error(err))
	}
	if err := printPlans(ctx, services); err != nil {
		zap.L().Fatal("Failed to list plans", zap.Error(err))
	}

	if *walletsFlag {
		prepareWallets(ctx, services)
	}

	zap.L().Info("Setup complete")
}

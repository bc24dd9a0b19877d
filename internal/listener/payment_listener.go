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

package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signals-ledger-go/internal/models"

	"go.uber.org/zap"
)

// TransactionSource is the Prime API surface the listener polls.
type TransactionSource interface {
	ListWallets(ctx context.Context, portfolioId, walletType string, symbols []string) ([]models.Wallet, error)
	ListWalletTransactions(ctx context.Context, portfolioId, walletId string, since time.Time) ([]models.PrimeTransaction, error)
}

type InvestmentFinder interface {
	FindInvestmentByPaymentAddress(ctx context.Context, address string) (*models.Investment, error)
}

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, investmentId, transactionId, idempotencyKey string) (*models.Investment, error)
}

// PaymentListenerConfig contains configuration for PaymentListener
type PaymentListenerConfig struct {
	Source          TransactionSource
	Investments     InvestmentFinder
	Confirmer       PaymentConfirmer
	PortfolioId     string
	Assets          []models.AssetConfig
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// PaymentListener polls Prime wallets for deposits and confirms the pending
// investment whose payment address received them.
type PaymentListener struct {
	source      TransactionSource
	investments InvestmentFinder
	confirmer   PaymentConfirmer

	// State management for processed transactions
	processedTxIds  map[string]time.Time
	mutex           sync.RWMutex
	lookbackWindow  time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration

	portfolioId      string
	assets           []models.AssetConfig
	stableSymbols    map[string]bool
	monitoredWallets []models.WalletInfo

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewPaymentListener(cfg PaymentListenerConfig) *PaymentListener {
	stable := make(map[string]bool)
	for _, asset := range cfg.Assets {
		if asset.Stable {
			stable[asset.Symbol] = true
		}
	}
	return &PaymentListener{
		source:          cfg.Source,
		investments:     cfg.Investments,
		confirmer:       cfg.Confirmer,
		processedTxIds:  make(map[string]time.Time),
		lookbackWindow:  cfg.LookbackWindow,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		portfolioId:     cfg.PortfolioId,
		assets:          cfg.Assets,
		stableSymbols:   stable,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start loads the wallets to watch and begins polling in the background.
func (d *PaymentListener) Start(ctx context.Context) error {
	zap.L().Info("Starting payment listener")

	if err := d.LoadMonitoredWallets(ctx); err != nil {
		return fmt.Errorf("failed to load monitored wallets: %w", err)
	}
	if len(d.monitoredWallets) == 0 {
		return fmt.Errorf("no wallets to monitor")
	}

	go d.pollLoop(ctx)
	go d.cleanupLoop(ctx)

	zap.L().Info("Payment listener started successfully",
		zap.Int("wallets", len(d.monitoredWallets)),
		zap.Duration("polling_interval", d.pollingInterval),
		zap.Duration("lookback_window", d.lookbackWindow))
	return nil
}

// Stop gracefully stops the payment listener
func (d *PaymentListener) Stop() {
	zap.L().Info("Stopping payment listener")
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Payment listener stopped")
}

func (d *PaymentListener) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.pollingInterval)
	defer ticker.Stop()

	d.pollWallets(ctx)

	for {
		select {
		case <-ticker.C:
			d.pollWallets(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// LoadMonitoredWallets resolves the trading wallets for the configured assets.
// With no assets configured every trading wallet is watched.
func (d *PaymentListener) LoadMonitoredWallets(ctx context.Context) error {
	var symbols []string
	networks := make(map[string]string)
	for _, asset := range d.assets {
		if _, seen := networks[asset.Symbol]; !seen {
			symbols = append(symbols, asset.Symbol)
		}
		networks[asset.Symbol] = asset.Network
	}

	wallets, err := d.source.ListWallets(ctx, d.portfolioId, "TRADING", symbols)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	d.monitoredWallets = make([]models.WalletInfo, 0, len(wallets))
	for _, w := range wallets {
		if seen[w.Id] {
			continue
		}
		seen[w.Id] = true
		d.monitoredWallets = append(d.monitoredWallets, models.WalletInfo{
			Id:          w.Id,
			AssetSymbol: w.Symbol,
			Network:     networks[w.Symbol],
		})
	}

	zap.L().Info("Monitoring Prime wallets",
		zap.Int("count", len(d.monitoredWallets)),
		zap.Strings("symbols", symbols))
	return nil
}

func (d *PaymentListener) pollWallets(ctx context.Context) {
	since := time.Now().UTC().Add(-d.lookbackWindow)

	var wg sync.WaitGroup
	for _, wallet := range d.monitoredWallets {
		wg.Add(1)
		go func(w models.WalletInfo) {
			defer wg.Done()
			if err := d.pollWallet(ctx, w, since); err != nil {
				zap.L().Error("Failed to poll wallet",
					zap.String("wallet_id", w.Id),
					zap.String("asset_symbol", w.AssetSymbol),
					zap.Error(err))
			}
		}(wallet)
	}
	wg.Wait()
}

func (d *PaymentListener) pollWallet(ctx context.Context, wallet models.WalletInfo, since time.Time) error {
	transactions, err := d.source.ListWalletTransactions(ctx, d.portfolioId, wallet.Id, since)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	newCount := 0
	for _, tx := range transactions {
		if d.isTransactionProcessed(tx.Id) {
			continue
		}
		newCount++

		if err := d.processDeposit(ctx, tx, wallet); err != nil {
			zap.L().Error("Failed to process transaction",
				zap.String("transaction_id", tx.Id),
				zap.String("wallet_id", wallet.Id),
				zap.Error(err))
		}
	}

	if newCount == 0 && len(transactions) > 0 {
		zap.L().Debug("All transactions already processed",
			zap.String("wallet_id", wallet.Id),
			zap.String("asset", wallet.AssetSymbol),
			zap.Int("total", len(transactions)))
	}
	return nil
}

func (d *PaymentListener) isTransactionProcessed(txId string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	_, exists := d.processedTxIds[txId]
	return exists
}

func (d *PaymentListener) markTransactionProcessed(txId string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.processedTxIds[txId] = time.Now()
}

func (d *PaymentListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanupProcessedTransactions()
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupProcessedTransactions forgets ids older than the lookback window;
// Prime no longer returns them.
func (d *PaymentListener) cleanupProcessedTransactions() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cutoff := time.Now().UTC().Add(-d.lookbackWindow)
	cleaned := 0

	for txId, processedTime := range d.processedTxIds {
		if processedTime.Before(cutoff) {
			delete(d.processedTxIds, txId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up old processed transactions",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(d.processedTxIds)))
	}
}

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
	"errors"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	primeTypeDeposit   = "DEPOSIT"
	primeStatusSettled = "TRANSACTION_IMPORTED"
)

// processDeposit confirms the pending investment a settled deposit pays for.
// Deposits that can never confirm anything are marked processed so they are
// not re-evaluated on every poll; transient failures are left for the next poll.
func (d *PaymentListener) processDeposit(ctx context.Context, tx models.PrimeTransaction, wallet models.WalletInfo) error {
	if tx.Type != primeTypeDeposit {
		d.markTransactionProcessed(tx.Id)
		return nil
	}
	if tx.Status != primeStatusSettled {
		zap.L().Debug("Skipping deposit with unhandled status",
			zap.String("transaction_id", tx.Id),
			zap.String("status", tx.Status),
			zap.String("symbol", tx.Symbol),
			zap.String("amount", tx.Amount))
		return nil
	}

	amount, err := tx.ParsedAmount()
	if err != nil {
		d.markTransactionProcessed(tx.Id)
		return fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		d.markTransactionProcessed(tx.Id)
		return nil
	}

	address := tx.DestinationAddress()
	if address == "" {
		zap.L().Debug("No address or account_identifier found in transfer_to",
			zap.String("transaction_id", tx.Id))
		d.markTransactionProcessed(tx.Id)
		return nil
	}

	inv, err := d.investments.FindInvestmentByPaymentAddress(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("Deposit to unrecognized address",
				zap.String("transaction_id", tx.Id),
				zap.String("address", address),
				zap.String("asset", wallet.AssetSymbol),
				zap.String("amount", amount.String()))
			d.markTransactionProcessed(tx.Id)
			return nil
		}
		return fmt.Errorf("failed to look up investment: %w", err)
	}

	if inv.Status != models.InvestmentStatusPending {
		if inv.PaymentTransactionId != tx.Id {
			zap.L().Warn("Deposit to address of a closed investment",
				zap.String("transaction_id", tx.Id),
				zap.String("investment_id", inv.Id),
				zap.String("status", string(inv.Status)),
				zap.String("amount", amount.String()))
		}
		d.markTransactionProcessed(tx.Id)
		return nil
	}

	if d.stableSymbols[wallet.AssetSymbol] {
		if amount.LessThan(inv.Amount) {
			d.markTransactionProcessed(tx.Id)
			return fmt.Errorf("underpayment for investment %s: received %s, expected %s",
				inv.Id, amount.String(), inv.Amount.String())
		}
	} else {
		// No price feed: the deposit is in asset units, the principal is not.
		zap.L().Warn("Deposit in non-stable asset needs manual review",
			zap.String("transaction_id", tx.Id),
			zap.String("investment_id", inv.Id),
			zap.String("asset", wallet.AssetSymbol),
			zap.String("amount", amount.String()),
			zap.String("principal", inv.Amount.String()))
	}

	confirmed, err := d.confirmer.ConfirmPayment(ctx, inv.Id, tx.Id, "prime:"+tx.Id)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			zap.L().Info("Investment moved before deposit was applied",
				zap.String("transaction_id", tx.Id),
				zap.String("investment_id", inv.Id),
				zap.Error(err))
			d.markTransactionProcessed(tx.Id)
			return nil
		}
		return fmt.Errorf("failed to confirm payment: %w", err)
	}

	d.markTransactionProcessed(tx.Id)
	zap.L().Info("Investment payment confirmed from Prime deposit",
		zap.String("transaction_id", tx.Id),
		zap.String("investment_id", confirmed.Id),
		zap.String("user_id", confirmed.UserId),
		zap.String("asset", wallet.AssetSymbol),
		zap.String("network", wallet.Network),
		zap.String("amount", amount.String()))
	return nil
}

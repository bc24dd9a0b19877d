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

package api

import (
	"context"
	"errors"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Withdraw debits a user's cash balance. The balance never goes negative.
func (s *InvestmentService) Withdraw(ctx context.Context, userId string, amount decimal.Decimal, reference, idempotencyKey string) (*models.LedgerResult, error) {
	if userId == "" || amount.LessThanOrEqual(decimal.Zero) {
		err := store.NewValidationError("withdrawal", "user id and a positive amount are required")
		return failed(err), err
	}

	zap.L().Info("Processing withdrawal",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))

	newBalance, err := s.ledger.Withdraw(ctx, userId, amount, reference, idempotencyKey)
	if err != nil {
		var insufficient *store.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			zap.L().Warn("Withdrawal exceeds balance",
				zap.String("user_id", userId),
				zap.String("available", insufficient.Available.String()),
				zap.String("requested", insufficient.Requested.String()))
		} else {
			zap.L().Error("Withdrawal processing failed",
				zap.String("user_id", userId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return failed(err), err
	}

	zap.L().Info("Withdrawal processed successfully",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()),
		zap.String("new_balance", newBalance.String()))

	return &models.LedgerResult{
		Success:    true,
		UserId:     userId,
		Amount:     amount,
		NewBalance: newBalance,
	}, nil
}

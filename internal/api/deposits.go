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

// Deposit credits a user's cash balance. The result always describes the
// outcome; err carries the typed failure for callers that map it.
func (s *InvestmentService) Deposit(ctx context.Context, userId string, amount decimal.Decimal, reference, idempotencyKey string) (*models.LedgerResult, error) {
	zap.L().Info("Processing deposit",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))

	if _, err := s.store.GetUserById(ctx, userId); err != nil {
		return failed(err), err
	}

	newBalance, err := s.ledger.Deposit(ctx, userId, amount, reference, idempotencyKey)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			zap.L().Warn("Invalid deposit parameters",
				zap.String("user_id", userId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		} else {
			zap.L().Error("Deposit processing failed",
				zap.String("user_id", userId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return failed(err), err
	}

	zap.L().Info("Deposit processed successfully",
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

func failed(err error) *models.LedgerResult {
	return &models.LedgerResult{Success: false, Error: err.Error()}
}

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

package investment

import (
	"context"
	"errors"
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"go.uber.org/zap"
)

// CompleteMatured completes every active investment whose end date has passed,
// paying out the expected return. Each investment is keyed so a rerun after a
// partial failure does not pay twice.
func (e *Engine) CompleteMatured(ctx context.Context) (int, error) {
	active, err := e.store.ListInvestmentsByStatus(ctx, models.InvestmentStatusActive)
	if err != nil {
		return 0, err
	}

	now := e.now()
	completed := 0
	var errs []error
	for _, inv := range active {
		if inv.EndDate == nil || inv.EndDate.After(now) {
			continue
		}
		if _, err := e.Complete(ctx, inv.Id, nil, "maturity:"+inv.Id); err != nil {
			if errors.Is(err, store.ErrInvalidState) {
				zap.L().Debug("Investment moved before maturity run", zap.String("investment_id", inv.Id))
				continue
			}
			zap.L().Error("Failed to complete matured investment",
				zap.String("investment_id", inv.Id),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		completed++
	}

	if completed > 0 || len(errs) > 0 {
		zap.L().Info("Maturity run finished",
			zap.Int("eligible", len(active)),
			zap.Int("completed", completed),
			zap.Int("failed", len(errs)))
	}
	return completed, errors.Join(errs...)
}

// ExpirePending cancels pending investments older than ttl. A non-positive ttl
// disables expiry.
func (e *Engine) ExpirePending(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	pending, err := e.store.ListInvestmentsByStatus(ctx, models.InvestmentStatusPending)
	if err != nil {
		return 0, err
	}

	cutoff := e.now().Add(-ttl)
	expired := 0
	var errs []error
	for _, inv := range pending {
		if inv.CreatedAt.After(cutoff) {
			continue
		}
		if _, err := e.Cancel(ctx, inv.Id, "payment window expired", "expiry:"+inv.Id); err != nil {
			if errors.Is(err, store.ErrInvalidState) {
				continue
			}
			zap.L().Error("Failed to expire pending investment",
				zap.String("investment_id", inv.Id),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		expired++
	}

	if expired > 0 {
		zap.L().Info("Expired pending investments", zap.Int("count", expired), zap.Duration("ttl", ttl))
	}
	return expired, errors.Join(errs...)
}

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
	"fmt"

	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/plans"
	"signals-ledger-go/internal/store"
)

// InvestmentService is the application facade used by the HTTP server and the CLIs.
type InvestmentService struct {
	store    store.LedgerStore
	catalog  *plans.Catalog
	ledger   *ledger.Service
	engine   *investment.Engine
	payments investment.PaymentProvider
}

// NewInvestmentService wires the facade. payments may be nil when no payment
// provider is configured.
func NewInvestmentService(s store.LedgerStore, catalog *plans.Catalog, l *ledger.Service, engine *investment.Engine, payments investment.PaymentProvider) *InvestmentService {
	return &InvestmentService{
		store:    s,
		catalog:  catalog,
		ledger:   l,
		engine:   engine,
		payments: payments,
	}
}

func (s *InvestmentService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

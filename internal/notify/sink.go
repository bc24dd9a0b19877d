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

package notify

import (
	"context"

	"signals-ledger-go/internal/models"

	"go.uber.org/zap"
)

// Sink receives committed lifecycle events. Notify never fails the caller:
// implementations log their own errors.
type Sink interface {
	Notify(ctx context.Context, event models.Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Notify(context.Context, models.Event) {}

// LogSink writes events to the global zap logger.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, event models.Event) {
	zap.L().Info("Investment event",
		zap.String("event_id", event.Id),
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserId),
		zap.String("investment_id", event.InvestmentId),
		zap.String("amount", event.Amount),
		zap.String("status", event.Status))
}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, event models.Event) {
	for _, sink := range m {
		sink.Notify(ctx, event)
	}
}

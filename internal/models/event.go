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

package models

import "time"

type EventType string

const (
	EventInvestmentCreated   EventType = "investment.created"
	EventPaymentAttached     EventType = "investment.payment_attached"
	EventPaymentConfirmed    EventType = "investment.payment_confirmed"
	EventInvestmentCompleted EventType = "investment.completed"
	EventInvestmentCancelled EventType = "investment.cancelled"
	EventBalanceChanged      EventType = "balance.changed"
)

// Event is a committed lifecycle change handed to the notification sink.
// Amounts are carried as strings so the payload stays codec neutral.
type Event struct {
	Id           string            `msgpack:"id" json:"id"`
	Type         EventType         `msgpack:"type" json:"type"`
	UserId       string            `msgpack:"user_id" json:"user_id"`
	InvestmentId string            `msgpack:"investment_id,omitempty" json:"investment_id,omitempty"`
	Amount       string            `msgpack:"amount,omitempty" json:"amount,omitempty"`
	Status       string            `msgpack:"status,omitempty" json:"status,omitempty"`
	OccurredAt   time.Time         `msgpack:"occurred_at" json:"occurred_at"`
	Attributes   map[string]string `msgpack:"attributes,omitempty" json:"attributes,omitempty"`
}

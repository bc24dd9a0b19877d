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

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentStatusPending   InvestmentStatus = "pending"
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusCompleted InvestmentStatus = "completed"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
)

// investmentTransitions is the forward-only lifecycle graph.
var investmentTransitions = map[InvestmentStatus][]InvestmentStatus{
	InvestmentStatusPending: {InvestmentStatusActive, InvestmentStatusCancelled},
	InvestmentStatusActive:  {InvestmentStatusCompleted, InvestmentStatusCancelled},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s InvestmentStatus) CanTransitionTo(next InvestmentStatus) bool {
	for _, allowed := range investmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s InvestmentStatus) IsTerminal() bool {
	return len(investmentTransitions[s]) == 0
}

func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentStatusPending, InvestmentStatusActive, InvestmentStatusCompleted, InvestmentStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type TransactionType string

const (
	TransactionTypeInvestment TransactionType = "investment"
	TransactionTypePayout     TransactionType = "payout"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// IsCredit reports whether the type increases the user's balance.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypePayout
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeInvestment, TransactionTypePayout, TransactionTypeDeposit, TransactionTypeWithdrawal:
		return true
	}
	return false
}

// Signed returns the amount with the sign of its effect on the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Validate checks the plan invariants.
func (p InvestmentPlan) Validate() error {
	if p.Id == "" {
		return fmt.Errorf("plan id is required")
	}
	if p.MinAmount.IsNegative() {
		return fmt.Errorf("plan %s: min amount must not be negative", p.Id)
	}
	if p.MinAmount.GreaterThan(p.MaxAmount) {
		return fmt.Errorf("plan %s: min amount %s exceeds max amount %s", p.Id, p.MinAmount, p.MaxAmount)
	}
	if p.RoiPercentage <= 0 {
		return fmt.Errorf("plan %s: roi percentage must be positive", p.Id)
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("plan %s: duration must be at least one day", p.Id)
	}
	return nil
}

// ExpectedReturn is the deterministic projection of a plan for an amount
type ExpectedReturn struct {
	Profit      decimal.Decimal `json:"profit"`
	TotalReturn decimal.Decimal `json:"total_return"`
	DailyReturn decimal.Decimal `json:"daily_return"`
}

// InvestmentStats aggregates a user's investments
type InvestmentStats struct {
	TotalInvested        decimal.Decimal `json:"total_invested"`
	TotalReturns         decimal.Decimal `json:"total_returns"`
	TotalProfit          decimal.Decimal `json:"total_profit"`
	ActiveInvestments    int             `json:"active_investments"`
	CompletedInvestments int             `json:"completed_investments"`
}

// PaymentDetails describes where and how an external payment is made
type PaymentDetails struct {
	Address           string `json:"address"`
	Network           string `json:"network,omitempty"`
	Asset             string `json:"asset,omitempty"`
	AccountIdentifier string `json:"account_identifier,omitempty"`
	TransactionId     string `json:"transaction_id,omitempty"`
}

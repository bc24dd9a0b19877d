package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InvestmentPlan is a product definition an investment is created against
type InvestmentPlan struct {
	Id            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	MinAmount     decimal.Decimal `db:"min_amount" json:"min_amount"`
	MaxAmount     decimal.Decimal `db:"max_amount" json:"max_amount"`
	RoiPercentage int64           `db:"roi_percentage" json:"roi_percentage"`
	DurationDays  int             `db:"duration_days" json:"duration_days"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}

// Investment is one user's stake in a plan. Plan terms are copied at creation
// so later plan edits never change an existing investment.
type Investment struct {
	Id                   string              `db:"id" json:"id"`
	UserId               string              `db:"user_id" json:"user_id"`
	PlanId               string              `db:"plan_id" json:"plan_id"`
	PlanName             string              `db:"plan_name" json:"plan_name"`
	Amount               decimal.Decimal     `db:"amount" json:"amount"`
	RoiPercentage        int64               `db:"roi_percentage" json:"roi_percentage"`
	DurationDays         int                 `db:"duration_days" json:"duration_days"`
	ExpectedReturn       decimal.Decimal     `db:"expected_return" json:"expected_return"`
	ActualReturn         decimal.NullDecimal `db:"actual_return" json:"actual_return"`
	PaymentMethod        string              `db:"payment_method" json:"payment_method"`
	PaymentAddress       string              `db:"payment_address" json:"payment_address,omitempty"`
	PaymentNetwork       string              `db:"payment_network" json:"payment_network,omitempty"`
	PaymentTransactionId string              `db:"payment_transaction_id" json:"payment_transaction_id,omitempty"`
	StartDate            *time.Time          `db:"start_date" json:"start_date,omitempty"`
	EndDate              *time.Time          `db:"end_date" json:"end_date,omitempty"`
	Status               InvestmentStatus    `db:"status" json:"status"`
	PaymentStatus        PaymentStatus       `db:"payment_status" json:"payment_status"`
	CancelReason         string              `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Version              int64               `db:"version" json:"version"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
}

// Balance represents current balance state (hot data)
type Balance struct {
	UserId            string          `db:"user_id" json:"user_id"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	Currency          string          `db:"currency" json:"currency"`
	LastTransactionId string          `db:"last_transaction_id" json:"last_transaction_id,omitempty"`
	Version           int64           `db:"version" json:"version"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction represents immutable transaction history (cold data).
// Amount is always positive; the direction comes from Type.
type Transaction struct {
	Id            string            `db:"id" json:"id"`
	UserId        string            `db:"user_id" json:"user_id"`
	Type          TransactionType   `db:"transaction_type" json:"type"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal   `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal   `db:"balance_after" json:"balance_after"`
	Status        TransactionStatus `db:"status" json:"status"`
	Description   string            `db:"description" json:"description"`
	InvestmentId  string            `db:"investment_id" json:"investment_id,omitempty"`
	Reference     string            `db:"reference" json:"reference,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// IdempotencyRecord remembers which result a caller-supplied key produced
type IdempotencyRecord struct {
	Key           string    `db:"key"`
	Operation     string    `db:"operation"`
	InvestmentId  string    `db:"investment_id"`
	TransactionId string    `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}

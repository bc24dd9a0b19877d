package store

import (
	"context"

	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Tx is the set of primitives available inside one atomic store transaction.
// Every method must be called with the ctx passed to WithTx.
type Tx interface {
	// --- Investments ---
	GetInvestment(ctx context.Context, investmentId string) (*models.Investment, error)
	InsertInvestment(ctx context.Context, inv *models.Investment) error
	// CompareAndSwapInvestment persists inv only if the stored row is still in
	// status from at version. On success inv.Version is incremented. A lost
	// race returns *InvalidStateError carrying the current status.
	CompareAndSwapInvestment(ctx context.Context, inv *models.Investment, from models.InvestmentStatus, version int64) error

	// --- Balances ---
	// GetBalance returns nil when the user has no balance row yet.
	GetBalance(ctx context.Context, userId string) (*models.Balance, error)
	CreateBalance(ctx context.Context, userId, currency string) (*models.Balance, error)
	UpdateBalance(ctx context.Context, userId string, balance decimal.Decimal, lastTransactionId string, version int64) error

	// --- Transactions ---
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	ListUserTransactions(ctx context.Context, userId string) ([]models.Transaction, error)

	// --- Idempotency ---
	SaveIdempotencyRecord(ctx context.Context, rec models.IdempotencyRecord) error
}

// LedgerStore defines the contract the engine and ledger rely on.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)

	// --- Plans ---
	ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error)
	GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error)
	UpsertPlan(ctx context.Context, plan models.InvestmentPlan) error

	// --- Investments ---
	GetInvestment(ctx context.Context, investmentId string) (*models.Investment, error)
	ListInvestmentsByUser(ctx context.Context, userId string) ([]models.Investment, error)
	ListInvestmentsByStatus(ctx context.Context, status models.InvestmentStatus) ([]models.Investment, error)
	FindInvestmentByPaymentAddress(ctx context.Context, address string) (*models.Investment, error)

	// --- Balances ---
	GetBalance(ctx context.Context, userId string) (*models.Balance, error)
	ListBalances(ctx context.Context) ([]models.Balance, error)

	// --- Transactions ---
	GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	GetInvestmentTransactions(ctx context.Context, investmentId string) ([]models.Transaction, error)

	// --- Idempotency ---
	// GetIdempotencyRecord returns nil, nil when the key was never used.
	GetIdempotencyRecord(ctx context.Context, key string) (*models.IdempotencyRecord, error)

	// --- Atomic units ---
	// WithTx runs fn in a single store transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(Tx) error) error

	Ping(ctx context.Context) error
	Close()
}

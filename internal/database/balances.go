package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanBalance(row rowScanner) (*models.Balance, error) {
	var balance models.Balance
	var balanceStr string
	var lastTxId sql.NullString
	if err := row.Scan(&balance.UserId, &balanceStr, &balance.Currency, &lastTxId,
		&balance.Version, &balance.UpdatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	balance.Balance = amount
	balance.LastTransactionId = lastTxId.String
	return &balance, nil
}

// getBalance returns nil when no row exists; no row means zero balance.
func getBalance(ctx context.Context, q queryer, userId string) (*models.Balance, error) {
	balance, err := scanBalance(q.QueryRowContext(ctx, queryGetBalance, userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.String("user_id", userId), zap.Error(err))
		return nil, unavailable("get balance", err)
	}
	return balance, nil
}

// GetBalance returns current balance for a user (O(1) lookup)
func (s *Service) GetBalance(ctx context.Context, userId string) (*models.Balance, error) {
	zap.L().Debug("Getting balance", zap.String("user_id", userId))
	return getBalance(ctx, s.db, userId)
}

// ListBalances returns every balance row, used by reconciliation
func (s *Service) ListBalances(ctx context.Context) ([]models.Balance, error) {
	rows, err := s.db.QueryContext(ctx, queryListBalances)
	if err != nil {
		zap.L().Error("Failed to list balances", zap.Error(err))
		return nil, unavailable("list balances", err)
	}
	defer closeRows(rows)

	var balances []models.Balance
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, *balance)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during balance row iteration", zap.Error(err))
		return nil, unavailable("iterate balance rows", err)
	}

	zap.L().Debug("Retrieved all balances", zap.Int("count", len(balances)))
	return balances, nil
}

func (t *sqlTx) GetBalance(ctx context.Context, userId string) (*models.Balance, error) {
	return getBalance(ctx, t.tx, userId)
}

// CreateBalance inserts the zero balance row. The user_id primary key makes a
// second creation fail instead of silently forking the balance.
func (t *sqlTx) CreateBalance(ctx context.Context, userId, currency string) (*models.Balance, error) {
	now := time.Now().UTC()
	if _, err := t.tx.ExecContext(ctx, queryInsertBalance, userId, currency, now); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("balance row for %s - %w", userId, store.ErrConcurrentModification)
		}
		return nil, unavailable("create balance", err)
	}

	zap.L().Info("Balance row created", zap.String("user_id", userId), zap.String("currency", currency))
	return &models.Balance{UserId: userId, Balance: decimal.Zero, Currency: currency, Version: 1, UpdatedAt: now}, nil
}

// UpdateBalance writes the new balance with optimistic locking on version.
func (t *sqlTx) UpdateBalance(ctx context.Context, userId string, balance decimal.Decimal, lastTransactionId string, version int64) error {
	result, err := t.tx.ExecContext(ctx, queryUpdateBalance,
		balance.String(), lastTransactionId, time.Now().UTC(), userId, version)
	if err != nil {
		return unavailable("update balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("check rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

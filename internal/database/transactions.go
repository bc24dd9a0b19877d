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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var amountStr, balanceBeforeStr, balanceAfterStr string
	var investmentId, reference sql.NullString
	err := row.Scan(&tx.Id, &tx.UserId, &tx.Type,
		&amountStr, &balanceBeforeStr, &balanceAfterStr,
		&tx.Status, &tx.Description, &investmentId, &reference, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	tx.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance before '%s': %w", balanceBeforeStr, err)
	}
	tx.BalanceAfter, err = decimal.NewFromString(balanceAfterStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance after '%s': %w", balanceAfterStr, err)
	}
	tx.InvestmentId = investmentId.String
	tx.Reference = reference.String
	return &tx, nil
}

func listTransactions(ctx context.Context, q queryer, query string, args ...any) ([]models.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query transactions", err)
	}
	defer closeRows(rows)

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, unavailable("iterate transaction rows", err)
	}
	return transactions, nil
}

// GetTransactionHistory returns paginated transaction history for a user, newest first
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))
	return listTransactions(ctx, s.db, queryGetTransactionHistory, userId, limit, offset)
}

func (s *Service) GetInvestmentTransactions(ctx context.Context, investmentId string) ([]models.Transaction, error) {
	return listTransactions(ctx, s.db, queryGetInvestmentTransactions, investmentId)
}

func (s *Service) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransaction, transactionId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Kind: "transaction", Id: transactionId}
		}
		return nil, unavailable("query transaction", err)
	}
	return tx, nil
}

// ListUserTransactions returns the full history in insertion order.
func (t *sqlTx) ListUserTransactions(ctx context.Context, userId string) ([]models.Transaction, error) {
	return listTransactions(ctx, t.tx, queryListUserTransactions, userId)
}

// InsertTransaction appends a transaction row and its journal entries. A second
// principal debit or payout for the same investment fails with ErrDuplicateTransaction.
func (t *sqlTx) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	_, err := t.tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.UserId, string(transaction.Type),
		transaction.Amount.String(), transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		string(transaction.Status), transaction.Description,
		nullString(transaction.InvestmentId), nullString(transaction.Reference), transaction.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			zap.L().Warn("Duplicate transaction detected",
				zap.String("investment_id", transaction.InvestmentId),
				zap.String("type", string(transaction.Type)))
			return fmt.Errorf("%w: %s for investment %s already recorded",
				store.ErrDuplicateTransaction, transaction.Type, transaction.InvestmentId)
		}
		return unavailable("insert transaction", err)
	}

	if err := t.addJournalEntries(ctx, transaction); err != nil {
		return unavailable("add journal entries", err)
	}
	return nil
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// addJournalEntries creates double-entry bookkeeping entries. The user's cash
// balance is a liability of the platform: credits to the user increase it.
func (t *sqlTx) addJournalEntries(ctx context.Context, transaction *models.Transaction) error {
	userAccount := journalEntry{accountType: "user_balance", accountId: transaction.UserId}
	var counter journalEntry

	switch transaction.Type {
	case models.TransactionTypeDeposit:
		counter = journalEntry{accountType: "platform_cash", accountId: "deposits"}
	case models.TransactionTypeWithdrawal:
		counter = journalEntry{accountType: "platform_cash", accountId: "withdrawals"}
	case models.TransactionTypeInvestment:
		counter = journalEntry{accountType: "investment_pool", accountId: journalInvestmentAccount(transaction)}
	case models.TransactionTypePayout:
		counter = journalEntry{accountType: "investment_returns", accountId: journalInvestmentAccount(transaction)}
	default:
		return fmt.Errorf("unknown transaction type %q", transaction.Type)
	}

	if transaction.Type.IsCredit() {
		counter.debitAmount, userAccount.creditAmount = transaction.Amount, transaction.Amount
	} else {
		userAccount.debitAmount, counter.creditAmount = transaction.Amount, transaction.Amount
	}

	for _, entry := range []journalEntry{userAccount, counter} {
		_, err := t.tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transaction.Id, entry.accountType, entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func journalInvestmentAccount(transaction *models.Transaction) string {
	if transaction.InvestmentId == "" {
		return "unassigned"
	}
	return transaction.InvestmentId
}

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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	opCredit = "ledger.credit"
	opDebit  = "ledger.debit"
)

// Entry is one balance mutation.
type Entry struct {
	UserId       string
	Type         models.TransactionType
	Amount       decimal.Decimal
	Description  string
	InvestmentId string
	Reference    string
}

// Params are the optional attributes of a Credit or Debit.
type Params struct {
	Type           models.TransactionType
	Description    string
	Reference      string
	IdempotencyKey string
}

// Mirror receives every committed transaction. Failures never affect the
// local ledger, which stays authoritative.
type Mirror interface {
	Record(ctx context.Context, t models.Transaction) error
}

// Service owns the user cash balance and its append-only transaction log.
type Service struct {
	store    store.LedgerStore
	currency string
	mirror   Mirror
	now      func() time.Time
}

type Option func(*Service)

func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(s store.LedgerStore, currency string, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Currency() string { return s.currency }

// GetBalance returns the user's balance; a user with no row has zero.
func (s *Service) GetBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	balance, err := s.store.GetBalance(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	if balance == nil {
		return decimal.Zero, nil
	}
	return balance.Balance, nil
}

// Apply mutates the balance and appends the matching transaction inside tx.
// The balance row is written before the transaction row, and created on the
// first mutation. A debit that would take the balance below zero fails with
// InsufficientBalanceError and leaves nothing behind once tx rolls back.
func (s *Service) Apply(ctx context.Context, tx store.Tx, entry Entry) (*models.Transaction, error) {
	if entry.UserId == "" {
		return nil, store.NewValidationError("user_id", "user id is required")
	}
	if !entry.Type.Valid() {
		return nil, store.NewValidationError("type", "unknown transaction type %q", entry.Type)
	}
	if !entry.Amount.IsPositive() {
		return nil, store.NewValidationError("amount", "amount must be greater than zero")
	}

	balance, err := tx.GetBalance(ctx, entry.UserId)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		if balance, err = tx.CreateBalance(ctx, entry.UserId, s.currency); err != nil {
			return nil, err
		}
	}

	before := balance.Balance
	var after decimal.Decimal
	if entry.Type.IsCredit() {
		after = before.Add(entry.Amount)
	} else {
		after = before.Sub(entry.Amount)
	}
	if after.IsNegative() {
		zap.L().Info("Debit rejected for insufficient balance",
			zap.String("user_id", entry.UserId),
			zap.String("available", before.String()),
			zap.String("requested", entry.Amount.String()))
		return nil, &store.InsufficientBalanceError{UserId: entry.UserId, Available: before, Requested: entry.Amount}
	}

	t := &models.Transaction{
		Id:            uuid.New().String(),
		UserId:        entry.UserId,
		Type:          entry.Type,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        models.TransactionStatusCompleted,
		Description:   entry.Description,
		InvestmentId:  entry.InvestmentId,
		Reference:     entry.Reference,
		CreatedAt:     s.now(),
	}

	if err := tx.UpdateBalance(ctx, entry.UserId, after, t.Id, balance.Version); err != nil {
		return nil, err
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}

	zap.L().Info("Ledger entry applied",
		zap.String("transaction_id", t.Id),
		zap.String("user_id", t.UserId),
		zap.String("type", string(t.Type)),
		zap.String("amount", t.Amount.String()),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", after.String()))
	return t, nil
}

// Credit adds amount to the user's balance and returns the new balance.
func (s *Service) Credit(ctx context.Context, userId string, amount decimal.Decimal, p Params) (decimal.Decimal, error) {
	if p.Type == "" {
		p.Type = models.TransactionTypeDeposit
	}
	if !p.Type.IsCredit() {
		return decimal.Zero, store.NewValidationError("type", "%s is not a credit", p.Type)
	}
	t, err := s.post(ctx, s.entry(userId, amount, p), p.IdempotencyKey, opCredit)
	if err != nil {
		return decimal.Zero, err
	}
	return t.BalanceAfter, nil
}

// Debit removes amount from the user's balance and returns the new balance.
func (s *Service) Debit(ctx context.Context, userId string, amount decimal.Decimal, p Params) (decimal.Decimal, error) {
	if p.Type == "" {
		p.Type = models.TransactionTypeWithdrawal
	}
	if p.Type.IsCredit() {
		return decimal.Zero, store.NewValidationError("type", "%s is not a debit", p.Type)
	}
	t, err := s.post(ctx, s.entry(userId, amount, p), p.IdempotencyKey, opDebit)
	if err != nil {
		return decimal.Zero, err
	}
	return t.BalanceAfter, nil
}

func (s *Service) Deposit(ctx context.Context, userId string, amount decimal.Decimal, reference, idempotencyKey string) (decimal.Decimal, error) {
	return s.Credit(ctx, userId, amount, Params{
		Type:           models.TransactionTypeDeposit,
		Description:    "Deposit",
		Reference:      reference,
		IdempotencyKey: idempotencyKey,
	})
}

func (s *Service) Withdraw(ctx context.Context, userId string, amount decimal.Decimal, reference, idempotencyKey string) (decimal.Decimal, error) {
	return s.Debit(ctx, userId, amount, Params{
		Type:           models.TransactionTypeWithdrawal,
		Description:    "Withdrawal",
		Reference:      reference,
		IdempotencyKey: idempotencyKey,
	})
}

// History returns the user's transactions, newest first.
func (s *Service) History(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.GetTransactionHistory(ctx, userId, limit, offset)
}

// Publish forwards committed transactions to the mirror, if any.
func (s *Service) Publish(ctx context.Context, txs ...models.Transaction) {
	if s.mirror == nil {
		return
	}
	for _, t := range txs {
		if err := s.mirror.Record(ctx, t); err != nil {
			if errors.Is(err, store.ErrDuplicateTransaction) {
				zap.L().Debug("Transaction already mirrored", zap.String("transaction_id", t.Id))
				continue
			}
			zap.L().Warn("Failed to mirror transaction",
				zap.String("transaction_id", t.Id),
				zap.String("type", string(t.Type)),
				zap.Error(err))
		}
	}
}

func (s *Service) entry(userId string, amount decimal.Decimal, p Params) Entry {
	return Entry{
		UserId:      userId,
		Type:        p.Type,
		Amount:      amount,
		Description: p.Description,
		Reference:   p.Reference,
	}
}

func (s *Service) post(ctx context.Context, entry Entry, idempotencyKey, operation string) (*models.Transaction, error) {
	if idempotencyKey != "" {
		if t, err := s.replay(ctx, idempotencyKey, operation, entry); t != nil || err != nil {
			return t, err
		}
	}

	var t *models.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if t, err = s.Apply(ctx, tx, entry); err != nil {
			return err
		}
		if idempotencyKey == "" {
			return nil
		}
		return tx.SaveIdempotencyRecord(ctx, models.IdempotencyRecord{
			Key:           idempotencyKey,
			Operation:     operation,
			TransactionId: t.Id,
			CreatedAt:     s.now(),
		})
	})
	if err != nil {
		// Lost a race on the same key: the winner's result is the answer.
		if idempotencyKey != "" && errors.Is(err, store.ErrDuplicateTransaction) {
			if t, replayErr := s.replay(ctx, idempotencyKey, operation, entry); t != nil || replayErr != nil {
				return t, replayErr
			}
		}
		return nil, err
	}

	s.Publish(ctx, *t)
	return t, nil
}

// replay returns the transaction recorded under key, or nil when the key is
// unused. A key recorded for a different user or amount is rejected.
func (s *Service) replay(ctx context.Context, key, operation string, entry Entry) (*models.Transaction, error) {
	rec, err := s.store.GetIdempotencyRecord(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.Operation != operation {
		return nil, store.NewValidationError("idempotency_key", "key already used for %s", rec.Operation)
	}

	t, err := s.store.GetTransaction(ctx, rec.TransactionId)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction for idempotency key %s: %w", key, err)
	}
	if t.UserId != entry.UserId || !t.Amount.Equal(entry.Amount) {
		return nil, store.NewValidationError("idempotency_key", "idempotency key already used for another request")
	}
	zap.L().Info("Idempotent replay", zap.String("key", key), zap.String("transaction_id", t.Id))
	return t, nil
}

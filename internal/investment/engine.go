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
	"fmt"
	"time"

	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/notify"
	"signals-ledger-go/internal/plans"
	"signals-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentMethodBalance marks investments funded from the user's cash balance.
const PaymentMethodBalance = "balance"

const (
	opCreate       = "investment.create"
	opCreateFunded = "investment.create_funded"
	opConfirm      = "investment.confirm"
	opComplete     = "investment.complete"
	opCancel       = "investment.cancel"
)

// PaymentProvider issues the payment instructions for an external payment.
type PaymentProvider interface {
	RequestPayment(ctx context.Context, inv models.Investment) (*models.PaymentDetails, error)
}

type CreateParams struct {
	UserId         string
	PlanId         string
	Amount         decimal.Decimal
	PaymentMethod  string
	IdempotencyKey string
}

// Engine drives investments through pending, active, completed and cancelled,
// keeping every balance effect in the same store transaction as the status change.
type Engine struct {
	store   store.LedgerStore
	catalog *plans.Catalog
	ledger  *ledger.Service
	sink    notify.Sink
	cfg     models.EngineConfig
	now     func() time.Time
	newId   func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIdGenerator(newId func() string) Option {
	return func(e *Engine) { e.newId = newId }
}

func NewEngine(s store.LedgerStore, catalog *plans.Catalog, l *ledger.Service, sink notify.Sink, cfg models.EngineConfig, opts ...Option) *Engine {
	if sink == nil {
		sink = notify.NopSink{}
	}
	if cfg.ActiveCancelPolicy == "" {
		cfg.ActiveCancelPolicy = models.CancelPolicyNone
	}
	e := &Engine{
		store:   s,
		catalog: catalog,
		ledger:  l,
		sink:    sink,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		newId:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create records a pending investment awaiting an external payment.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*models.Investment, error) {
	if p.PaymentMethod == "" {
		return nil, store.NewValidationError("payment_method", "payment method is required")
	}
	if p.PaymentMethod == PaymentMethodBalance {
		return nil, store.NewValidationError("payment_method", "balance funded investments are created active")
	}
	if inv, err := e.replay(ctx, p.IdempotencyKey, opCreate, sameRequest(p)); inv != nil || err != nil {
		return inv, err
	}

	inv, err := e.newInvestment(ctx, p)
	if err != nil {
		return nil, err
	}

	err = e.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertInvestment(ctx, inv); err != nil {
			return err
		}
		return e.saveKey(ctx, tx, p.IdempotencyKey, opCreate, inv.Id)
	})
	if err != nil {
		return e.recover(ctx, err, p.IdempotencyKey, opCreate, sameRequest(p))
	}

	zap.L().Info("Investment created",
		zap.String("investment_id", inv.Id),
		zap.String("user_id", inv.UserId),
		zap.String("plan_id", inv.PlanId),
		zap.String("amount", inv.Amount.String()),
		zap.String("payment_method", inv.PaymentMethod))
	e.emit(ctx, models.EventInvestmentCreated, inv, inv.Amount)
	return inv, nil
}

// CreateFundedByBalance debits the user's balance and inserts the investment
// already active. Without enough balance nothing is written.
func (e *Engine) CreateFundedByBalance(ctx context.Context, p CreateParams) (*models.Investment, error) {
	p.PaymentMethod = PaymentMethodBalance
	if inv, err := e.replay(ctx, p.IdempotencyKey, opCreateFunded, sameRequest(p)); inv != nil || err != nil {
		return inv, err
	}

	inv, err := e.newInvestment(ctx, p)
	if err != nil {
		return nil, err
	}
	e.activate(inv)

	var debit *models.Transaction
	err = e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		debit, err = e.ledger.Apply(ctx, tx, ledger.Entry{
			UserId:       inv.UserId,
			Type:         models.TransactionTypeInvestment,
			Amount:       inv.Amount,
			Description:  fmt.Sprintf("Investment in %s plan", inv.PlanName),
			InvestmentId: inv.Id,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertInvestment(ctx, inv); err != nil {
			return err
		}
		return e.saveKey(ctx, tx, p.IdempotencyKey, opCreateFunded, inv.Id)
	})
	if err != nil {
		return e.recover(ctx, err, p.IdempotencyKey, opCreateFunded, sameRequest(p))
	}

	zap.L().Info("Investment funded from balance",
		zap.String("investment_id", inv.Id),
		zap.String("user_id", inv.UserId),
		zap.String("amount", inv.Amount.String()),
		zap.String("balance_after", debit.BalanceAfter.String()))
	e.ledger.Publish(ctx, *debit)
	e.emit(ctx, models.EventInvestmentCreated, inv, inv.Amount)
	e.emit(ctx, models.EventPaymentConfirmed, inv, inv.Amount)
	return inv, nil
}

// AttachPayment records where the external payment is expected. Status is unchanged.
func (e *Engine) AttachPayment(ctx context.Context, investmentId string, details models.PaymentDetails) (*models.Investment, error) {
	if details.Address == "" && details.TransactionId == "" {
		return nil, store.NewValidationError("payment", "payment address or transaction id is required")
	}

	inv, err := e.store.GetInvestment(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, &store.InvalidStateError{InvestmentId: inv.Id, Current: inv.Status, Operation: "attach payment to"}
	}

	updated := *inv
	if details.Address != "" {
		updated.PaymentAddress = details.Address
	}
	if details.Network != "" {
		updated.PaymentNetwork = details.Network
	}
	if details.TransactionId != "" {
		updated.PaymentTransactionId = details.TransactionId
	}
	updated.UpdatedAt = e.now()

	err = e.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.CompareAndSwapInvestment(ctx, &updated, models.InvestmentStatusPending, inv.Version)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Payment details attached",
		zap.String("investment_id", updated.Id),
		zap.String("address", updated.PaymentAddress),
		zap.String("network", updated.PaymentNetwork))
	e.emit(ctx, models.EventPaymentAttached, &updated, updated.Amount)
	return &updated, nil
}

// ConfirmPayment activates a pending investment once its external payment
// has arrived. The incoming funds are recorded as a deposit and immediately
// committed as the investment, so the cash balance is unchanged.
func (e *Engine) ConfirmPayment(ctx context.Context, investmentId, transactionId, idempotencyKey string) (*models.Investment, error) {
	if transactionId == "" {
		return nil, store.NewValidationError("transaction_id", "payment transaction id is required")
	}
	if inv, err := e.replay(ctx, idempotencyKey, opConfirm, sameInvestment(investmentId)); inv != nil || err != nil {
		return inv, err
	}

	inv, err := e.store.GetInvestment(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvestmentStatusPending {
		if inv.PaymentStatus == models.PaymentStatusConfirmed && inv.PaymentTransactionId == transactionId {
			zap.L().Info("Payment already confirmed", zap.String("investment_id", inv.Id), zap.String("transaction_id", transactionId))
			return inv, nil
		}
		return nil, &store.InvalidStateError{InvestmentId: inv.Id, Current: inv.Status, Operation: "confirm payment for"}
	}

	updated := *inv
	updated.PaymentTransactionId = transactionId
	e.activate(&updated)

	entries := []ledger.Entry{
		{
			UserId:       inv.UserId,
			Type:         models.TransactionTypeDeposit,
			Amount:       inv.Amount,
			Description:  fmt.Sprintf("Payment received via %s", inv.PaymentMethod),
			InvestmentId: inv.Id,
			Reference:    transactionId,
		},
		{
			UserId:       inv.UserId,
			Type:         models.TransactionTypeInvestment,
			Amount:       inv.Amount,
			Description:  fmt.Sprintf("Investment in %s plan", inv.PlanName),
			InvestmentId: inv.Id,
			Reference:    transactionId,
		},
	}

	result, err := e.transition(ctx, inv, &updated, entries, idempotencyKey, opConfirm)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment payment confirmed",
		zap.String("investment_id", result.Id),
		zap.String("transaction_id", transactionId),
		zap.Timep("end_date", result.EndDate))
	e.emit(ctx, models.EventPaymentConfirmed, result, result.Amount)
	return result, nil
}

// Complete pays out actualReturn, or the expected return when nil, and
// closes the investment.
func (e *Engine) Complete(ctx context.Context, investmentId string, actualReturn *decimal.Decimal, idempotencyKey string) (*models.Investment, error) {
	if actualReturn != nil && !actualReturn.IsPositive() {
		return nil, store.NewValidationError("actual_return", "actual return must be greater than zero")
	}
	if inv, err := e.replay(ctx, idempotencyKey, opComplete, sameInvestment(investmentId)); inv != nil || err != nil {
		return inv, err
	}

	inv, err := e.store.GetInvestment(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvestmentStatusActive {
		return nil, &store.InvalidStateError{InvestmentId: inv.Id, Current: inv.Status, Operation: "complete"}
	}

	final := inv.ExpectedReturn
	if actualReturn != nil {
		final = *actualReturn
	}

	updated := *inv
	updated.Status = models.InvestmentStatusCompleted
	updated.ActualReturn = decimal.NewNullDecimal(final)
	updated.UpdatedAt = e.now()

	result, err := e.transition(ctx, inv, &updated, []ledger.Entry{{
		UserId:       inv.UserId,
		Type:         models.TransactionTypePayout,
		Amount:       final,
		Description:  fmt.Sprintf("Return from %s plan", inv.PlanName),
		InvestmentId: inv.Id,
	}}, idempotencyKey, opComplete)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment completed",
		zap.String("investment_id", result.Id),
		zap.String("user_id", result.UserId),
		zap.String("payout", final.String()))
	e.emit(ctx, models.EventInvestmentCompleted, result, final)
	return result, nil
}

// Cancel closes a pending or active investment. An active investment's
// principal is refunded only under the refund cancel policy.
func (e *Engine) Cancel(ctx context.Context, investmentId, reason, idempotencyKey string) (*models.Investment, error) {
	if inv, err := e.replay(ctx, idempotencyKey, opCancel, sameInvestment(investmentId)); inv != nil || err != nil {
		return inv, err
	}

	inv, err := e.store.GetInvestment(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransitionTo(models.InvestmentStatusCancelled) {
		return nil, &store.InvalidStateError{InvestmentId: inv.Id, Current: inv.Status, Operation: "cancel"}
	}
	if reason == "" {
		reason = "cancelled by request"
	}

	updated := *inv
	updated.Status = models.InvestmentStatusCancelled
	updated.CancelReason = reason
	updated.UpdatedAt = e.now()
	if inv.PaymentStatus == models.PaymentStatusPending {
		updated.PaymentStatus = models.PaymentStatusFailed
	}

	var entries []ledger.Entry
	if inv.Status == models.InvestmentStatusActive && e.cfg.ActiveCancelPolicy == models.CancelPolicyRefund {
		entries = append(entries, ledger.Entry{
			UserId:       inv.UserId,
			Type:         models.TransactionTypeDeposit,
			Amount:       inv.Amount,
			Description:  fmt.Sprintf("Principal refund for cancelled %s investment", inv.PlanName),
			InvestmentId: inv.Id,
		})
	}

	result, err := e.transition(ctx, inv, &updated, entries, idempotencyKey, opCancel)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment cancelled",
		zap.String("investment_id", result.Id),
		zap.String("previous_status", string(inv.Status)),
		zap.String("reason", reason),
		zap.Bool("refunded", len(entries) > 0))
	e.emit(ctx, models.EventInvestmentCancelled, result, result.Amount)
	return result, nil
}

func (e *Engine) Get(ctx context.Context, investmentId string) (*models.Investment, error) {
	return e.store.GetInvestment(ctx, investmentId)
}

func (e *Engine) ListByUser(ctx context.Context, userId string) ([]models.Investment, error) {
	return e.store.ListInvestmentsByUser(ctx, userId)
}

func (e *Engine) Stats(ctx context.Context, userId string) (models.InvestmentStats, error) {
	investments, err := e.store.ListInvestmentsByUser(ctx, userId)
	if err != nil {
		return ComputeStats(nil), err
	}
	return ComputeStats(investments), nil
}

// newInvestment validates the request and builds a pending investment with the
// plan terms copied in.
func (e *Engine) newInvestment(ctx context.Context, p CreateParams) (*models.Investment, error) {
	if p.UserId == "" {
		return nil, store.NewValidationError("user_id", "user id is required")
	}
	if _, err := e.store.GetUserById(ctx, p.UserId); err != nil {
		return nil, err
	}

	plan, err := e.catalog.GetPlan(ctx, p.PlanId)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, store.NewValidationError("plan_id", "plan %s is not active", plan.Id)
	}
	if err := plans.ValidateAmount(*plan, p.Amount); err != nil {
		return nil, err
	}

	projection := plans.ComputeExpectedReturn(*plan, p.Amount)
	now := e.now()
	return &models.Investment{
		Id:             e.newId(),
		UserId:         p.UserId,
		PlanId:         plan.Id,
		PlanName:       plan.Name,
		Amount:         p.Amount,
		RoiPercentage:  plan.RoiPercentage,
		DurationDays:   plan.DurationDays,
		ExpectedReturn: projection.TotalReturn,
		PaymentMethod:  p.PaymentMethod,
		Status:         models.InvestmentStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// activate stamps the funded state: confirmed payment and the maturity window.
func (e *Engine) activate(inv *models.Investment) {
	start := e.now()
	end := start.AddDate(0, 0, inv.DurationDays)
	inv.Status = models.InvestmentStatusActive
	inv.PaymentStatus = models.PaymentStatusConfirmed
	inv.StartDate = &start
	inv.EndDate = &end
	inv.UpdatedAt = start
}

// transition persists next with a compare-and-swap on current's status and
// version and applies entries in the same store transaction.
func (e *Engine) transition(ctx context.Context, current, next *models.Investment, entries []ledger.Entry, idempotencyKey, operation string) (*models.Investment, error) {
	if !current.Status.CanTransitionTo(next.Status) {
		return nil, &store.InvalidStateError{InvestmentId: current.Id, Current: current.Status, Operation: "move to " + string(next.Status)}
	}

	var txs []models.Transaction
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.CompareAndSwapInvestment(ctx, next, current.Status, current.Version); err != nil {
			return err
		}
		for _, entry := range entries {
			t, err := e.ledger.Apply(ctx, tx, entry)
			if err != nil {
				return err
			}
			txs = append(txs, *t)
		}
		return e.saveKey(ctx, tx, idempotencyKey, operation, next.Id)
	})
	if err != nil {
		return e.recover(ctx, err, idempotencyKey, operation, sameInvestment(current.Id))
	}

	e.ledger.Publish(ctx, txs...)
	return next, nil
}

func (e *Engine) saveKey(ctx context.Context, tx store.Tx, key, operation, investmentId string) error {
	if key == "" {
		return nil
	}
	return tx.SaveIdempotencyRecord(ctx, models.IdempotencyRecord{
		Key:          key,
		Operation:    operation,
		InvestmentId: investmentId,
		CreatedAt:    e.now(),
	})
}

// sameRequest reports whether a replayed investment was created from p.
func sameRequest(p CreateParams) func(*models.Investment) bool {
	return func(inv *models.Investment) bool {
		return inv.UserId == p.UserId &&
			inv.PlanId == p.PlanId &&
			inv.PaymentMethod == p.PaymentMethod &&
			inv.Amount.Equal(p.Amount)
	}
}

func sameInvestment(investmentId string) func(*models.Investment) bool {
	return func(inv *models.Investment) bool { return inv.Id == investmentId }
}

// replay returns the investment produced by an earlier call with key, or nil
// when the key is unused. A key recorded for a request that does not match
// is rejected instead of replayed.
func (e *Engine) replay(ctx context.Context, key, operation string, match func(*models.Investment) bool) (*models.Investment, error) {
	if key == "" {
		return nil, nil
	}
	rec, err := e.store.GetIdempotencyRecord(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.Operation != operation {
		return nil, store.NewValidationError("idempotency_key", "key already used for %s", rec.Operation)
	}

	inv, err := e.store.GetInvestment(ctx, rec.InvestmentId)
	if err != nil {
		return nil, fmt.Errorf("failed to load investment for idempotency key %s: %w", key, err)
	}
	if !match(inv) {
		return nil, store.NewValidationError("idempotency_key", "idempotency key already used for another request")
	}
	zap.L().Info("Idempotent replay",
		zap.String("key", key),
		zap.String("operation", operation),
		zap.String("investment_id", inv.Id))
	return inv, nil
}

// recover turns a lost idempotency-key race into the winner's result.
func (e *Engine) recover(ctx context.Context, err error, key, operation string, match func(*models.Investment) bool) (*models.Investment, error) {
	if key != "" && errors.Is(err, store.ErrDuplicateTransaction) {
		if inv, replayErr := e.replay(ctx, key, operation, match); inv != nil || replayErr != nil {
			return inv, replayErr
		}
	}
	return nil, err
}

func (e *Engine) emit(ctx context.Context, eventType models.EventType, inv *models.Investment, amount decimal.Decimal) {
	e.sink.Notify(ctx, models.Event{
		Id:           fmt.Sprintf("%s:%s", inv.Id, eventType),
		Type:         eventType,
		UserId:       inv.UserId,
		InvestmentId: inv.Id,
		Amount:       amount.String(),
		Status:       string(inv.Status),
		OccurredAt:   e.now(),
		Attributes: map[string]string{
			"plan_id":        inv.PlanId,
			"plan_name":      inv.PlanName,
			"payment_method": inv.PaymentMethod,
		},
	})
}

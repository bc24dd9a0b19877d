package ledger

import (
	"context"
	"errors"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceMirror reports the balance an external ledger holds for a user.
type BalanceMirror interface {
	Balance(ctx context.Context, userId, currency string) (decimal.Decimal, error)
}

// Report is the outcome of reconciling one user's balance against its history.
type Report struct {
	UserId           string
	Stored           decimal.Decimal
	Computed         decimal.Decimal
	Difference       decimal.Decimal
	TransactionCount int
	Repaired         bool
	MirrorBalance    decimal.NullDecimal
}

func (r Report) Balanced() bool { return r.Difference.IsZero() }

// InvestmentIssue describes an investment whose ledger trail is incomplete.
type InvestmentIssue struct {
	InvestmentId string
	UserId       string
	Status       models.InvestmentStatus
	Problem      string
}

// Reconciler checks that every balance equals the signed sum of its completed
// transactions. The balance row is authoritative: it is written first in every
// mutation, so repair appends a correcting transaction and never moves money.
type Reconciler struct {
	store  store.LedgerStore
	ledger *Service
	mirror BalanceMirror
	repair bool
}

type ReconcilerOption func(*Reconciler)

func WithRepair(repair bool) ReconcilerOption {
	return func(r *Reconciler) { r.repair = repair }
}

func WithBalanceMirror(m BalanceMirror) ReconcilerOption {
	return func(r *Reconciler) { r.mirror = m }
}

func NewReconciler(s store.LedgerStore, l *Service, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{store: s, ledger: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ComputeBalance sums completed transactions with their balance effect.
func ComputeBalance(txs []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Status != models.TransactionStatusCompleted {
			continue
		}
		sum = sum.Add(t.Signed())
	}
	return sum
}

func (r *Reconciler) ReconcileUser(ctx context.Context, userId string) (*Report, error) {
	zap.L().Info("Reconciling balance", zap.String("user_id", userId))

	report := &Report{UserId: userId}
	var correction *models.Transaction
	err := r.store.WithTx(ctx, func(tx store.Tx) error {
		balance, err := tx.GetBalance(ctx, userId)
		if err != nil {
			return err
		}
		txs, err := tx.ListUserTransactions(ctx, userId)
		if err != nil {
			return err
		}

		report.Stored = decimal.Zero
		if balance != nil {
			report.Stored = balance.Balance
		}
		report.Computed = ComputeBalance(txs)
		report.Difference = report.Stored.Sub(report.Computed)
		report.TransactionCount = len(txs)

		if report.Balanced() || !r.repair {
			return nil
		}

		correction = &models.Transaction{
			Id:            uuid.New().String(),
			UserId:        userId,
			Type:          models.TransactionTypeDeposit,
			Amount:        report.Difference.Abs(),
			BalanceBefore: report.Computed,
			BalanceAfter:  report.Stored,
			Status:        models.TransactionStatusCompleted,
			Description:   "Reconciliation adjustment",
			CreatedAt:     r.ledger.now(),
		}
		if report.Difference.IsNegative() {
			correction.Type = models.TransactionTypeWithdrawal
		}
		correction.Reference = "reconciliation:" + correction.CreatedAt.Format("2006-01-02")
		return tx.InsertTransaction(ctx, correction)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile balance for %s: %w", userId, err)
	}

	if !report.Balanced() {
		zap.L().Error("Balance reconciliation failed",
			zap.String("user_id", userId),
			zap.String("current_balance", report.Stored.String()),
			zap.String("calculated_balance", report.Computed.String()),
			zap.String("difference", report.Difference.String()),
			zap.Bool("repaired", correction != nil))
	}
	if correction != nil {
		report.Repaired = true
		r.ledger.Publish(ctx, *correction)
	}

	if r.mirror != nil {
		mirrored, err := r.mirror.Balance(ctx, userId, r.ledger.Currency())
		if err != nil {
			zap.L().Warn("Failed to read mirror balance", zap.String("user_id", userId), zap.Error(err))
		} else {
			report.MirrorBalance = decimal.NewNullDecimal(mirrored)
			if !mirrored.Equal(report.Stored) {
				zap.L().Warn("Mirror balance differs from ledger",
					zap.String("user_id", userId),
					zap.String("ledger_balance", report.Stored.String()),
					zap.String("mirror_balance", mirrored.String()))
			}
		}
	}

	if report.Balanced() {
		zap.L().Info("Balance reconciliation successful",
			zap.String("user_id", userId),
			zap.String("balance", report.Stored.String()))
	}
	return report, nil
}

// ReconcileAll reconciles every user with a balance row. Per-user failures are
// collected so one bad account does not hide the others.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]Report, error) {
	balances, err := r.store.ListBalances(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(balances))
	var errs []error
	for _, balance := range balances {
		report, err := r.ReconcileUser(ctx, balance.UserId)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reports = append(reports, *report)
	}
	return reports, errors.Join(errs...)
}

// CheckInvestments finds active investments without a principal debit and
// completed investments without a payout matching their actual return.
func (r *Reconciler) CheckInvestments(ctx context.Context) ([]InvestmentIssue, error) {
	var issues []InvestmentIssue

	checks := []struct {
		status models.InvestmentStatus
		want   models.TransactionType
	}{
		{models.InvestmentStatusActive, models.TransactionTypeInvestment},
		{models.InvestmentStatusCompleted, models.TransactionTypePayout},
	}

	for _, check := range checks {
		investments, err := r.store.ListInvestmentsByStatus(ctx, check.status)
		if err != nil {
			return nil, err
		}
		for _, inv := range investments {
			txs, err := r.store.GetInvestmentTransactions(ctx, inv.Id)
			if err != nil {
				return nil, err
			}
			if problem := investmentProblem(inv, txs, check.want); problem != "" {
				zap.L().Error("Investment ledger trail incomplete",
					zap.String("investment_id", inv.Id),
					zap.String("status", string(inv.Status)),
					zap.String("problem", problem))
				issues = append(issues, InvestmentIssue{
					InvestmentId: inv.Id,
					UserId:       inv.UserId,
					Status:       inv.Status,
					Problem:      problem,
				})
			}
		}
	}
	return issues, nil
}

func investmentProblem(inv models.Investment, txs []models.Transaction, want models.TransactionType) string {
	expected := inv.Amount
	if want == models.TransactionTypePayout {
		if !inv.ActualReturn.Valid {
			return "completed without actual return"
		}
		expected = inv.ActualReturn.Decimal
	}

	for _, t := range txs {
		if t.Type != want {
			continue
		}
		if !t.Amount.Equal(expected) {
			return fmt.Sprintf("%s amount %s does not match %s", want, t.Amount, expected)
		}
		return ""
	}
	return fmt.Sprintf("missing %s transaction", want)
}

package ledger

import (
	"context"
	"testing"
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBalanceMirror struct {
	balance decimal.Decimal
}

func (m staticBalanceMirror) Balance(context.Context, string, string) (decimal.Decimal, error) {
	return m.balance, nil
}

func TestReconcileUser_Balanced(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	svc := NewService(db, "USD")

	_, err := svc.Deposit(ctx, "u1", dec(300), "", "")
	require.NoError(t, err)

	report, err := NewReconciler(db, svc, WithBalanceMirror(staticBalanceMirror{balance: dec(300)})).ReconcileUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.Equal(t, 1, report.TransactionCount)
	require.True(t, report.MirrorBalance.Valid)
	assert.True(t, dec(300).Equal(report.MirrorBalance.Decimal))
}

func TestReconcileUser_DetectsAndRepairsDrift(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	svc := NewService(db, "USD")

	_, err := svc.Deposit(ctx, "u1", dec(300), "", "")
	require.NoError(t, err)

	// Move the balance without a matching transaction
	require.NoError(t, db.WithTx(ctx, func(tx store.Tx) error {
		balance, err := tx.GetBalance(ctx, "u1")
		if err != nil {
			return err
		}
		return tx.UpdateBalance(ctx, "u1", balance.Balance.Add(dec(50)), balance.LastTransactionId, balance.Version)
	}))

	report, err := NewReconciler(db, svc).ReconcileUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, report.Balanced())
	assert.True(t, dec(50).Equal(report.Difference))
	assert.False(t, report.Repaired)

	reports, err := NewReconciler(db, svc, WithRepair(true)).ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Repaired)

	report, err = NewReconciler(db, svc).ReconcileUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, report.Balanced())

	balance, err := svc.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, dec(350).Equal(balance), "repair never moves the authoritative balance")

	history, err := svc.History(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionTypeDeposit, history[0].Type)
	assert.Equal(t, "Reconciliation adjustment", history[0].Description)
}

func TestCheckInvestments(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	svc := NewService(db, "USD")

	now := time.Now().UTC()
	orphan := &models.Investment{
		Id: "inv-orphan", UserId: "u1", PlanId: "starter", PlanName: "Starter",
		Amount: dec(200), RoiPercentage: 1000, DurationDays: 1, ExpectedReturn: dec(2200),
		PaymentMethod: "balance", Status: models.InvestmentStatusActive,
		PaymentStatus: models.PaymentStatusConfirmed, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	funded := *orphan
	funded.Id = "inv-funded"

	_, err := svc.Deposit(ctx, "u1", dec(200), "", "")
	require.NoError(t, err)
	require.NoError(t, db.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertInvestment(ctx, orphan); err != nil {
			return err
		}
		if _, err := svc.Apply(ctx, tx, Entry{
			UserId: "u1", Type: models.TransactionTypeInvestment, Amount: dec(200), InvestmentId: funded.Id,
		}); err != nil {
			return err
		}
		return tx.InsertInvestment(ctx, &funded)
	}))

	issues, err := NewReconciler(db, svc).CheckInvestments(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "inv-orphan", issues[0].InvestmentId)
	assert.Equal(t, "missing investment transaction", issues[0].Problem)
}

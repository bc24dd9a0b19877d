package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return service, service.Close
}

func newTestInvestment(id, userId string) *models.Investment {
	now := time.Now().UTC()
	return &models.Investment{
		Id:             id,
		UserId:         userId,
		PlanId:         "starter",
		PlanName:       "Starter",
		Amount:         decimal.NewFromInt(200),
		RoiPercentage:  1000,
		DurationDays:   1,
		ExpectedReturn: decimal.NewFromInt(2200),
		PaymentMethod:  "USDC",
		Status:         models.InvestmentStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateUserAndLookup(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user, err := service.CreateUser(ctx, "user1", "Test User", "test@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Id != "user1" {
		t.Errorf("Expected user1, got %s", user.Id)
	}

	if _, err := service.CreateUser(ctx, "user2", "Other", "test@example.com"); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected validation error for duplicate email, got %v", err)
	}

	if _, err := service.GetUserById(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestGetBalance_NoRow(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	balance, err := service.GetBalance(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != nil {
		t.Errorf("Expected no balance row, got %+v", balance)
	}
}

func TestBalanceLifecycleInTx(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	err := service.WithTx(ctx, func(tx store.Tx) error {
		balance, err := tx.CreateBalance(ctx, "user1", "USD")
		if err != nil {
			return err
		}
		txn := &models.Transaction{
			Id:            "tx1",
			UserId:        "user1",
			Type:          models.TransactionTypeDeposit,
			Amount:        decimal.NewFromInt(500),
			BalanceBefore: decimal.Zero,
			BalanceAfter:  decimal.NewFromInt(500),
			Status:        models.TransactionStatusCompleted,
			Description:   "Initial deposit",
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.UpdateBalance(ctx, "user1", txn.BalanceAfter, txn.Id, balance.Version); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, txn)
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	balance, err := service.GetBalance(ctx, "user1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance 500, got %s", balance.Balance)
	}
	if balance.Version != 2 {
		t.Errorf("Expected version 2, got %d", balance.Version)
	}
	if balance.LastTransactionId != "tx1" {
		t.Errorf("Expected last transaction tx1, got %s", balance.LastTransactionId)
	}

	history, err := service.GetTransactionHistory(ctx, "user1", 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Type != models.TransactionTypeDeposit {
		t.Fatalf("Expected one deposit, got %+v", history)
	}
	if history[0].InvestmentId != "" {
		t.Errorf("Expected no investment id, got %s", history[0].InvestmentId)
	}
}

func TestCreateBalanceTwiceFails(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	err := service.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateBalance(ctx, "user1", "USD"); err != nil {
			return err
		}
		_, err := tx.CreateBalance(ctx, "user1", "USD")
		return err
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected concurrent modification, got %v", err)
	}

	// The failed unit rolled back as a whole
	balance, err := service.GetBalance(ctx, "user1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != nil {
		t.Errorf("Expected rollback to remove balance row, got %+v", balance)
	}
}

func TestUpdateBalance_StaleVersion(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	err := service.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateBalance(ctx, "user1", "USD"); err != nil {
			return err
		}
		return tx.UpdateBalance(ctx, "user1", decimal.NewFromInt(10), "tx1", 7)
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected concurrent modification, got %v", err)
	}
}

func TestInvestmentCompareAndSwap(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	inv := newTestInvestment("inv1", "user1")
	if err := service.WithTx(ctx, func(tx store.Tx) error { return tx.InsertInvestment(ctx, inv) }); err != nil {
		t.Fatalf("InsertInvestment failed: %v", err)
	}

	start := time.Now().UTC()
	end := start.Add(24 * time.Hour)
	updated := *inv
	updated.Status = models.InvestmentStatusActive
	updated.PaymentStatus = models.PaymentStatusConfirmed
	updated.PaymentTransactionId = "0xabc"
	updated.StartDate = &start
	updated.EndDate = &end

	err := service.WithTx(ctx, func(tx store.Tx) error {
		return tx.CompareAndSwapInvestment(ctx, &updated, models.InvestmentStatusPending, inv.Version)
	})
	if err != nil {
		t.Fatalf("CompareAndSwapInvestment failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}

	// A second writer still holding the pending snapshot loses
	stale := *inv
	stale.Status = models.InvestmentStatusCancelled
	err = service.WithTx(ctx, func(tx store.Tx) error {
		return tx.CompareAndSwapInvestment(ctx, &stale, models.InvestmentStatusPending, inv.Version)
	})
	var stateErr *store.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected InvalidStateError, got %v", err)
	}
	if stateErr.Current != models.InvestmentStatusActive {
		t.Errorf("Expected current status active, got %s", stateErr.Current)
	}

	stored, err := service.GetInvestment(ctx, "inv1")
	if err != nil {
		t.Fatalf("GetInvestment failed: %v", err)
	}
	if stored.Status != models.InvestmentStatusActive || stored.PaymentTransactionId != "0xabc" {
		t.Errorf("Unexpected stored investment: %+v", stored)
	}
	if stored.EndDate == nil || !stored.EndDate.Equal(end) {
		t.Errorf("Expected end date %v, got %v", end, stored.EndDate)
	}
	if stored.ActualReturn.Valid {
		t.Errorf("Expected no actual return, got %s", stored.ActualReturn.Decimal)
	}
}

func TestInsertTransaction_OnePrincipalDebitPerInvestment(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	debit := func(id string) *models.Transaction {
		return &models.Transaction{
			Id:            id,
			UserId:        "user1",
			Type:          models.TransactionTypeInvestment,
			Amount:        decimal.NewFromInt(200),
			BalanceBefore: decimal.NewFromInt(200),
			BalanceAfter:  decimal.Zero,
			Status:        models.TransactionStatusCompleted,
			InvestmentId:  "inv1",
			CreatedAt:     time.Now().UTC(),
		}
	}

	if err := service.WithTx(ctx, func(tx store.Tx) error { return tx.InsertTransaction(ctx, debit("tx1")) }); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := service.WithTx(ctx, func(tx store.Tx) error { return tx.InsertTransaction(ctx, debit("tx2")) })
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected duplicate transaction, got %v", err)
	}

	txs, err := service.GetInvestmentTransactions(ctx, "inv1")
	if err != nil {
		t.Fatalf("GetInvestmentTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(txs))
	}
}

func TestIdempotencyRecord(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	rec, err := service.GetIdempotencyRecord(ctx, "key1")
	if err != nil || rec != nil {
		t.Fatalf("Expected no record, got %+v (%v)", rec, err)
	}

	save := func() error {
		return service.WithTx(ctx, func(tx store.Tx) error {
			return tx.SaveIdempotencyRecord(ctx, models.IdempotencyRecord{
				Key: "key1", Operation: "confirm", InvestmentId: "inv1", CreatedAt: time.Now().UTC(),
			})
		})
	}
	if err := save(); err != nil {
		t.Fatalf("SaveIdempotencyRecord failed: %v", err)
	}
	if err := save(); !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected duplicate, got %v", err)
	}

	rec, err = service.GetIdempotencyRecord(ctx, "key1")
	if err != nil {
		t.Fatalf("GetIdempotencyRecord failed: %v", err)
	}
	if rec.Operation != "confirm" || rec.InvestmentId != "inv1" || rec.TransactionId != "" {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestPlans(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	plan := models.InvestmentPlan{
		Id: "gold", Name: "Gold", MinAmount: decimal.NewFromInt(1000), MaxAmount: decimal.NewFromInt(5000),
		RoiPercentage: 1200, DurationDays: 3, IsActive: true,
	}
	if err := service.UpsertPlan(ctx, plan); err != nil {
		t.Fatalf("UpsertPlan failed: %v", err)
	}
	plan.IsActive = false
	plan.Name = "Gold (retired)"
	if err := service.UpsertPlan(ctx, plan); err != nil {
		t.Fatalf("UpsertPlan update failed: %v", err)
	}

	active, err := service.ListPlans(ctx, true)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active plans, got %d", len(active))
	}

	all, err := service.ListPlans(ctx, false)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Gold (retired)" || !all[0].MinAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Unexpected plans: %+v", all)
	}

	bad := plan
	bad.Id = "broken"
	bad.MinAmount = decimal.NewFromInt(9000)
	if err := service.UpsertPlan(ctx, bad); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	if _, err := service.GetPlan(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestFindInvestmentByPaymentAddress(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	inv := newTestInvestment("inv1", "user1")
	inv.PaymentAddress = "0xAbCdEf"
	if err := service.WithTx(ctx, func(tx store.Tx) error { return tx.InsertInvestment(ctx, inv) }); err != nil {
		t.Fatalf("InsertInvestment failed: %v", err)
	}

	found, err := service.FindInvestmentByPaymentAddress(ctx, "0xabcdef")
	if err != nil {
		t.Fatalf("FindInvestmentByPaymentAddress failed: %v", err)
	}
	if found.Id != "inv1" {
		t.Errorf("Expected inv1, got %s", found.Id)
	}

	if _, err := service.FindInvestmentByPaymentAddress(ctx, "0xother"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	service, _ := setupTestDb(t)
	service.Close()

	_, err := service.ListInvestmentsByUser(context.Background(), "user1")
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Expected store unavailable, got %v", err)
	}
}

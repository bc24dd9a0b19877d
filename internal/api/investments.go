package api

import (
	"context"
	"errors"

	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/plans"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errNoPaymentProvider = errors.New("no payment provider configured")

func (s *InvestmentService) ListPlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return s.catalog.ListActivePlans(ctx)
}

// QuotePlan previews the return of investing amount in a plan without writing anything.
func (s *InvestmentService) QuotePlan(ctx context.Context, planId string, amount decimal.Decimal) (*models.InvestmentQuote, error) {
	plan, err := s.catalog.GetPlan(ctx, planId)
	if err != nil {
		return nil, err
	}
	if err := plans.ValidateAmount(*plan, amount); err != nil {
		return nil, err
	}
	return &models.InvestmentQuote{
		Plan:           *plan,
		Amount:         amount,
		ExpectedReturn: plans.ComputeExpectedReturn(*plan, amount),
	}, nil
}

func (s *InvestmentService) CreateInvestment(ctx context.Context, p investment.CreateParams) (*models.Investment, error) {
	return s.engine.Create(ctx, p)
}

func (s *InvestmentService) CreateFundedInvestment(ctx context.Context, p investment.CreateParams) (*models.Investment, error) {
	return s.engine.CreateFundedByBalance(ctx, p)
}

// RequestPaymentAddress asks the payment provider where the user should send
// funds and attaches the answer to the pending investment.
func (s *InvestmentService) RequestPaymentAddress(ctx context.Context, investmentId string) (*models.Investment, error) {
	if s.payments == nil {
		return nil, &store.StoreUnavailableError{Op: "request payment address", Err: errNoPaymentProvider}
	}

	inv, err := s.engine.Get(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvestmentStatusPending {
		return nil, &store.InvalidStateError{InvestmentId: inv.Id, Current: inv.Status, Operation: "request payment for"}
	}
	if inv.PaymentAddress != "" {
		return inv, nil
	}

	details, err := s.payments.RequestPayment(ctx, *inv)
	if err != nil {
		zap.L().Error("Payment provider failed to issue address",
			zap.String("investment_id", inv.Id),
			zap.String("payment_method", inv.PaymentMethod),
			zap.Error(err))
		return nil, &store.StoreUnavailableError{Op: "request payment address", Err: err}
	}
	return s.engine.AttachPayment(ctx, inv.Id, *details)
}

// AttachPayment records payment details issued outside the configured provider.
func (s *InvestmentService) AttachPayment(ctx context.Context, investmentId string, details models.PaymentDetails) (*models.Investment, error) {
	return s.engine.AttachPayment(ctx, investmentId, details)
}

func (s *InvestmentService) ConfirmInvestmentPayment(ctx context.Context, investmentId, transactionId, idempotencyKey string) (*models.Investment, error) {
	return s.engine.ConfirmPayment(ctx, investmentId, transactionId, idempotencyKey)
}

func (s *InvestmentService) CompleteInvestment(ctx context.Context, investmentId string, actualReturn *decimal.Decimal, idempotencyKey string) (*models.Investment, error) {
	return s.engine.Complete(ctx, investmentId, actualReturn, idempotencyKey)
}

func (s *InvestmentService) CancelInvestment(ctx context.Context, investmentId, reason, idempotencyKey string) (*models.Investment, error) {
	return s.engine.Cancel(ctx, investmentId, reason, idempotencyKey)
}

func (s *InvestmentService) GetInvestment(ctx context.Context, investmentId string) (*models.Investment, error) {
	return s.engine.Get(ctx, investmentId)
}

// GetUserInvestments degrades to an empty list while the store is unavailable.
func (s *InvestmentService) GetUserInvestments(ctx context.Context, userId string) ([]models.Investment, error) {
	if userId == "" {
		return nil, store.NewValidationError("user_id", "user id is required")
	}

	investments, err := s.engine.ListByUser(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) {
			zap.L().Warn("Store unavailable, returning no investments",
				zap.String("user_id", userId),
				zap.Error(err))
			return []models.Investment{}, nil
		}
		return nil, err
	}
	return investments, nil
}

// GetInvestmentStats degrades to zero stats while the store is unavailable.
func (s *InvestmentService) GetInvestmentStats(ctx context.Context, userId string) (models.InvestmentStats, error) {
	if userId == "" {
		return investment.ComputeStats(nil), store.NewValidationError("user_id", "user id is required")
	}

	stats, err := s.engine.Stats(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) {
			zap.L().Warn("Store unavailable, returning empty stats",
				zap.String("user_id", userId),
				zap.Error(err))
			return investment.ComputeStats(nil), nil
		}
		return stats, err
	}
	return stats, nil
}

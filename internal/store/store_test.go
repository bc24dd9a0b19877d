package store

import (
	"errors"
	"fmt"
	"testing"

	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("amount", "must be positive"), KindValidation},
		{"insufficient", &InsufficientBalanceError{UserId: "u1", Available: decimal.NewFromInt(500), Requested: decimal.NewFromInt(600)}, KindInsufficientBalance},
		{"invalid state", &InvalidStateError{InvestmentId: "i1", Current: models.InvestmentStatusPending, Operation: "complete"}, KindInvalidState},
		{"not found", &NotFoundError{Kind: "investment", Id: "i1"}, KindNotFound},
		{"unavailable", &StoreUnavailableError{Op: "get balance", Err: errors.New("database is locked")}, KindUnavailable},
		{"concurrent", ErrConcurrentModification, KindUnavailable},
		{"wrapped", fmt.Errorf("create investment: %w", &NotFoundError{Kind: "plan", Id: "gold"}), KindNotFound},
		{"unknown", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStoreUnavailableErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := fmt.Errorf("list investments: %w", &StoreUnavailableError{Op: "query investments", Err: cause})

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsClientError(err))
}

func TestErrorMessages(t *testing.T) {
	err := &InsufficientBalanceError{UserId: "u1", Available: decimal.NewFromInt(500), Requested: decimal.NewFromInt(600)}
	assert.Equal(t, "insufficient balance for user u1: available 500, requested 600", err.Error())

	state := &InvalidStateError{InvestmentId: "i1", Current: models.InvestmentStatusPending, Operation: "complete"}
	assert.Equal(t, "cannot complete investment i1 in status pending", state.Error())

	assert.Equal(t, "minimum investment is 200", (&ValidationError{Reason: "minimum investment is 200"}).Error())
	assert.True(t, IsClientError(state))
}

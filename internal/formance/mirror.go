package formance

import (
	"context"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Credits come from a platform account allowed to overdraft; debits come from
// the user account, which is not.
const numscriptCredit = `vars {
  asset $asset
  number $amount
  account $user_id
  account $counterparty
  string $transaction_type
  string $investment_id
  string $amount_human
  string $description
}

send [$asset $amount] (
  source = @platform:$counterparty allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", $transaction_type)
set_tx_meta("investment_id", $investment_id)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("description", $description)
`

const numscriptDebit = `vars {
  asset $asset
  number $amount
  account $user_id
  account $counterparty
  string $transaction_type
  string $investment_id
  string $amount_human
  string $description
}

send [$asset $amount] (
  source = @users:$user_id
  destination = @platform:$counterparty
)

set_tx_meta("event_type", $transaction_type)
set_tx_meta("investment_id", $investment_id)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("description", $description)
`

// counterparty names the platform account on the other side of a transaction.
func counterparty(t models.TransactionType) (string, error) {
	switch t {
	case models.TransactionTypeDeposit:
		return "deposits", nil
	case models.TransactionTypeWithdrawal:
		return "withdrawals", nil
	case models.TransactionTypeInvestment:
		return "investments", nil
	case models.TransactionTypePayout:
		return "returns", nil
	}
	return "", fmt.Errorf("unknown transaction type %q", t)
}

// buildPostTransaction renders a ledger transaction as a Numscript posting
// referenced by the transaction id.
func buildPostTransaction(t models.Transaction, currency string) (shared.V2PostTransaction, error) {
	account, err := counterparty(t.Type)
	if err != nil {
		return shared.V2PostTransaction{}, err
	}

	script := numscriptDebit
	if t.Type.IsCredit() {
		script = numscriptCredit
	}

	return shared.V2PostTransaction{
		Reference: strPtr(t.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars: map[string]string{
				"asset":            formanceAsset(currency),
				"amount":           t.Amount.Shift(int32(precisionFor(currency))).BigInt().String(),
				"user_id":          t.UserId,
				"counterparty":     account,
				"transaction_type": string(t.Type),
				"investment_id":    t.InvestmentId,
				"amount_human":     t.Amount.String(),
				"description":      t.Description,
			},
		},
	}, nil
}

// Record posts a ledger transaction to Formance. A transaction already
// mirrored fails with store.ErrDuplicateTransaction.
func (s *Service) Record(ctx context.Context, t models.Transaction) error {
	postTx, err := buildPostTransaction(t, s.currency)
	if err != nil {
		return err
	}

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return fmt.Errorf("%w: transaction %s already mirrored", store.ErrDuplicateTransaction, t.Id)
		}
		return fmt.Errorf("error mirroring transaction: %w", err)
	}

	zap.L().Debug("Transaction mirrored to Formance",
		zap.String("transaction_id", t.Id),
		zap.String("user_id", t.UserId),
		zap.String("type", string(t.Type)),
		zap.String("amount", t.Amount.String()))
	return nil
}

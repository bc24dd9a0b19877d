package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"
)

func (s *Service) GetIdempotencyRecord(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	var investmentId, transactionId sql.NullString
	err := s.db.QueryRowContext(ctx, queryGetIdempotencyRecord, key).Scan(
		&rec.Key, &rec.Operation, &investmentId, &transactionId, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("query idempotency key", err)
	}
	rec.InvestmentId = investmentId.String
	rec.TransactionId = transactionId.String
	return &rec, nil
}

// SaveIdempotencyRecord claims key inside the caller's transaction. A key that
// is already taken fails with ErrDuplicateTransaction and rolls the unit back.
func (t *sqlTx) SaveIdempotencyRecord(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := t.tx.ExecContext(ctx, queryInsertIdempotencyRecord,
		rec.Key, rec.Operation, nullString(rec.InvestmentId), nullString(rec.TransactionId), rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: idempotency key %s already used", store.ErrDuplicateTransaction, rec.Key)
		}
		return unavailable("save idempotency key", err)
	}
	return nil
}

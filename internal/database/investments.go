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
	"time"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row rowScanner) (*models.Investment, error) {
	var inv models.Investment
	var amountStr, expectedStr string
	var actual, address, network, paymentTxId, cancelReason sql.NullString
	var start, end sql.NullTime

	err := row.Scan(&inv.Id, &inv.UserId, &inv.PlanId, &inv.PlanName, &amountStr,
		&inv.RoiPercentage, &inv.DurationDays, &expectedStr, &actual, &inv.PaymentMethod,
		&address, &network, &paymentTxId, &start, &end, &inv.Status, &inv.PaymentStatus,
		&cancelReason, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if inv.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if inv.ExpectedReturn, err = decimal.NewFromString(expectedStr); err != nil {
		return nil, fmt.Errorf("failed to parse expected return '%s': %w", expectedStr, err)
	}
	if actual.Valid {
		value, err := decimal.NewFromString(actual.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse actual return '%s': %w", actual.String, err)
		}
		inv.ActualReturn = decimal.NewNullDecimal(value)
	}

	inv.PaymentAddress = address.String
	inv.PaymentNetwork = network.String
	inv.PaymentTransactionId = paymentTxId.String
	inv.CancelReason = cancelReason.String
	if start.Valid {
		t := start.Time
		inv.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		inv.EndDate = &t
	}
	return &inv, nil
}

func getInvestment(ctx context.Context, q queryer, investmentId string) (*models.Investment, error) {
	inv, err := scanInvestment(q.QueryRowContext(ctx, queryGetInvestment, investmentId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Kind: "investment", Id: investmentId}
		}
		return nil, unavailable("query investment", err)
	}
	return inv, nil
}

func listInvestments(ctx context.Context, q queryer, query string, args ...any) ([]models.Investment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query investments", err)
	}
	defer closeRows(rows)

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan investment row: %w", err)
		}
		investments = append(investments, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate investment rows", err)
	}
	return investments, nil
}

func (s *Service) GetInvestment(ctx context.Context, investmentId string) (*models.Investment, error) {
	return getInvestment(ctx, s.db, investmentId)
}

func (s *Service) ListInvestmentsByUser(ctx context.Context, userId string) ([]models.Investment, error) {
	zap.L().Debug("Querying investments by user", zap.String("user_id", userId))
	return listInvestments(ctx, s.db, queryListInvestmentsByUser, userId)
}

func (s *Service) ListInvestmentsByStatus(ctx context.Context, status models.InvestmentStatus) ([]models.Investment, error) {
	return listInvestments(ctx, s.db, queryListInvestmentsByStatus, string(status))
}

// FindInvestmentByPaymentAddress returns the most recent investment awaiting
// funds at address. Address comparison is case-insensitive.
func (s *Service) FindInvestmentByPaymentAddress(ctx context.Context, address string) (*models.Investment, error) {
	inv, err := scanInvestment(s.db.QueryRowContext(ctx, queryFindInvestmentByPaymentAddress, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Kind: "investment for address", Id: address}
		}
		return nil, unavailable("query investment by address", err)
	}
	return inv, nil
}

func (t *sqlTx) GetInvestment(ctx context.Context, investmentId string) (*models.Investment, error) {
	return getInvestment(ctx, t.tx, investmentId)
}

func (t *sqlTx) InsertInvestment(ctx context.Context, inv *models.Investment) error {
	_, err := t.tx.ExecContext(ctx, queryInsertInvestment,
		inv.Id, inv.UserId, inv.PlanId, inv.PlanName, inv.Amount.String(),
		inv.RoiPercentage, inv.DurationDays, inv.ExpectedReturn.String(), nullDecimal(inv.ActualReturn),
		inv.PaymentMethod, nullString(inv.PaymentAddress), nullString(inv.PaymentNetwork),
		nullString(inv.PaymentTransactionId), nullTime(inv.StartDate), nullTime(inv.EndDate),
		string(inv.Status), string(inv.PaymentStatus), nullString(inv.CancelReason),
		inv.Version, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: investment %s already exists", store.ErrDuplicateTransaction, inv.Id)
		}
		return unavailable("insert investment", err)
	}

	zap.L().Debug("Investment inserted",
		zap.String("investment_id", inv.Id),
		zap.String("status", string(inv.Status)))
	return nil
}

func (t *sqlTx) CompareAndSwapInvestment(ctx context.Context, inv *models.Investment, from models.InvestmentStatus, version int64) error {
	result, err := t.tx.ExecContext(ctx, queryCompareAndSwapInvestment,
		nullDecimal(inv.ActualReturn), nullString(inv.PaymentAddress), nullString(inv.PaymentNetwork),
		nullString(inv.PaymentTransactionId), nullTime(inv.StartDate), nullTime(inv.EndDate),
		string(inv.Status), string(inv.PaymentStatus), nullString(inv.CancelReason), inv.UpdatedAt,
		inv.Id, string(from), version)
	if err != nil {
		return unavailable("update investment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("check rows affected", err)
	}
	if rowsAffected == 0 {
		var current string
		err := t.tx.QueryRowContext(ctx, queryGetInvestmentStatus, inv.Id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return &store.NotFoundError{Kind: "investment", Id: inv.Id}
		}
		if err != nil {
			return unavailable("query investment status", err)
		}
		zap.L().Warn("Investment compare-and-swap lost",
			zap.String("investment_id", inv.Id),
			zap.String("expected_status", string(from)),
			zap.String("current_status", current),
			zap.Int64("expected_version", version))
		return &store.InvalidStateError{
			InvestmentId: inv.Id,
			Current:      models.InvestmentStatus(current),
			Operation:    "move to " + string(inv.Status),
		}
	}

	inv.Version = version + 1
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

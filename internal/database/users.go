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

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"go.uber.org/zap"
)

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) getUser(ctx context.Context, query, lookup string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, lookup))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.NotFoundError{Kind: "user", Id: lookup}
		}
		zap.L().Error("Failed to query user", zap.String("lookup", lookup), zap.Error(err))
		return nil, unavailable("query user", err)
	}
	return user, nil
}

// GetUsers returns active users, oldest first.
func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, unavailable("query users", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate user rows", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	return s.getUser(ctx, queryGetUserById, userId)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, queryGetUserByEmail, email)
}

// CreateUser inserts a user. A taken email is a validation error, not an outage.
func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, queryInsertUser, userId, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.NewValidationError("email", "user with email %s already exists", email)
		}
		return nil, unavailable("insert user", err)
	}

	if rowsAffected, err := result.RowsAffected(); err != nil {
		return nil, unavailable("check rows affected", err)
	} else if rowsAffected == 0 {
		return nil, store.NewValidationError("email", "user with email %s already exists", email)
	}

	zap.L().Info("User created", zap.String("id", userId), zap.String("email", email))
	return s.GetUserById(ctx, userId)
}

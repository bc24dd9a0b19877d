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

package common

import (
	"context"
	"fmt"

	"signals-ledger-go/internal/models"
)

// UserInfo is the slice of a user the report commands print.
type UserInfo struct {
	Id    string
	Name  string
	Email string
}

// UserDirectory is the part of the store that report commands read users from.
type UserDirectory interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SelectUsers returns the user with emailFilter, or every active user when
// the filter is empty.
func SelectUsers(ctx context.Context, directory UserDirectory, emailFilter string) ([]UserInfo, error) {
	if emailFilter != "" {
		user, err := directory.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return []UserInfo{toUserInfo(*user)}, nil
	}

	all, err := directory.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	users := make([]UserInfo, 0, len(all))
	for _, u := range all {
		users = append(users, toUserInfo(u))
	}
	return users, nil
}

func toUserInfo(u models.User) UserInfo {
	return UserInfo{Id: u.Id, Name: u.Name, Email: u.Email}
}

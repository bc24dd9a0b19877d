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

const schema = `
	-- Create users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_active ON users(active);

	-- Plan catalog
	CREATE TABLE IF NOT EXISTS investment_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		min_amount TEXT NOT NULL,
		max_amount TEXT NOT NULL,
		roi_percentage INTEGER NOT NULL CHECK (roi_percentage > 0),
		duration_days INTEGER NOT NULL CHECK (duration_days > 0),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Investments carry a copy of the plan terms they were created with
	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		roi_percentage INTEGER NOT NULL,
		duration_days INTEGER NOT NULL,
		expected_return TEXT NOT NULL,
		actual_return TEXT,
		payment_method TEXT NOT NULL,
		payment_address TEXT,
		payment_network TEXT,
		payment_transaction_id TEXT,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		cancel_reason TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
	CREATE INDEX IF NOT EXISTS idx_investments_status ON investments(status);
	CREATE INDEX IF NOT EXISTS idx_investments_payment_address ON investments(payment_address);

	-- Account Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS user_balances (
		user_id TEXT PRIMARY KEY,
		balance TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL,
		last_transaction_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Transactions Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS payment_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		description TEXT NOT NULL DEFAULT '',
		investment_id TEXT,
		reference TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payment_transactions_user_id ON payment_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_payment_transactions_investment_id ON payment_transactions(investment_id);
	-- At most one principal debit and one payout per investment
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_transactions_investment_type
		ON payment_transactions(investment_id, transaction_type)
		WHERE investment_id IS NOT NULL AND transaction_type IN ('investment', 'payout');

	CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT PRIMARY KEY,
		operation TEXT NOT NULL,
		investment_id TEXT,
		transaction_id TEXT,
		created_at TIMESTAMP NOT NULL
	);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_journal_transaction_id ON journal_entries(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
`

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Plan queries
	planColumns = `id, name, min_amount, max_amount, roi_percentage, duration_days, is_active`

	queryListPlans = `
		SELECT ` + planColumns + `
		FROM investment_plans
		WHERE is_active = 1 OR ? = 0`

	queryGetPlan = `
		SELECT ` + planColumns + `
		FROM investment_plans
		WHERE id = ?`

	queryUpsertPlan = `
		INSERT INTO investment_plans (id, name, min_amount, max_amount, roi_percentage, duration_days, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			min_amount = excluded.min_amount,
			max_amount = excluded.max_amount,
			roi_percentage = excluded.roi_percentage,
			duration_days = excluded.duration_days,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP`

	// Investment queries
	investmentColumns = `id, user_id, plan_id, plan_name, amount, roi_percentage, duration_days,
		expected_return, actual_return, payment_method, payment_address, payment_network,
		payment_transaction_id, start_date, end_date, status, payment_status, cancel_reason,
		version, created_at, updated_at`

	queryGetInvestment = `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE id = ?`

	queryListInvestmentsByUser = `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE user_id = ?
		ORDER BY rowid DESC`

	queryListInvestmentsByStatus = `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE status = ?
		ORDER BY rowid`

	queryFindInvestmentByPaymentAddress = `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE LOWER(payment_address) = LOWER(?)
		ORDER BY rowid DESC
		LIMIT 1`

	queryInsertInvestment = `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryCompareAndSwapInvestment = `
		UPDATE investments
		SET actual_return = ?, payment_address = ?, payment_network = ?, payment_transaction_id = ?,
			start_date = ?, end_date = ?, status = ?, payment_status = ?, cancel_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND status = ? AND version = ?`

	queryGetInvestmentStatus = `
		SELECT status FROM investments WHERE id = ?`

	// Balance queries
	balanceColumns = `user_id, balance, currency, last_transaction_id, version, updated_at`

	queryGetBalance = `
		SELECT ` + balanceColumns + `
		FROM user_balances
		WHERE user_id = ?`

	queryListBalances = `
		SELECT ` + balanceColumns + `
		FROM user_balances
		ORDER BY user_id`

	queryInsertBalance = `
		INSERT INTO user_balances (user_id, balance, currency, version, updated_at)
		VALUES (?, '0', ?, 1, ?)`

	queryUpdateBalance = `
		UPDATE user_balances
		SET balance = ?, last_transaction_id = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// Transaction queries
	transactionColumns = `id, user_id, transaction_type, amount, balance_before, balance_after,
		status, description, investment_id, reference, created_at`

	queryInsertTransaction = `
		INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransaction = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE id = ?`

	queryGetTransactionHistory = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE user_id = ?
		ORDER BY rowid DESC
		LIMIT ? OFFSET ?`

	queryListUserTransactions = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE user_id = ?
		ORDER BY rowid`

	queryGetInvestmentTransactions = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE investment_id = ?
		ORDER BY rowid`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	// Idempotency queries
	queryGetIdempotencyRecord = `
		SELECT key, operation, investment_id, transaction_id, created_at
		FROM idempotency_keys
		WHERE key = ?`

	queryInsertIdempotencyRecord = `
		INSERT INTO idempotency_keys (key, operation, investment_id, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?)`
)

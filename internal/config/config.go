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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"signals-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:             getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			CreateDummyUsers: getEnvBool("CREATE_DUMMY_USERS", false),
		},
		Engine: models.EngineConfig{
			Currency:           getEnvString("LEDGER_CURRENCY", "USD"),
			ActiveCancelPolicy: models.CancelPolicy(getEnvString("ACTIVE_CANCEL_POLICY", string(models.CancelPolicyNone))),
		},
		Server: models.ServerConfig{
			Addr:           getEnvString("SERVER_ADDR", ":8080"),
			AllowedOrigins: getEnvList("SERVER_ALLOWED_ORIGINS"),
		},
		Scheduler: models.SchedulerConfig{
			Enabled:           getEnvBool("SCHEDULER_ENABLED", true),
			ReconcileSchedule: getEnvString("RECONCILE_SCHEDULE", "@every 1h"),
			MaturitySchedule:  getEnvString("MATURITY_SCHEDULE", "@every 5m"),
			ExpirySchedule:    getEnvString("EXPIRY_SCHEDULE", "@every 15m"),
			RepairBalances:    getEnvBool("RECONCILE_REPAIR", false),
		},
		Notify: models.NotifyConfig{
			RedisAddr:     getEnvString("REDIS_ADDR", ""),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			Queue:         getEnvString("NOTIFY_QUEUE", "notifications"),
			Concurrency:   getEnvInt("NOTIFY_CONCURRENCY", 5),
			WebhookURL:    getEnvString("BROADCAST_WEBHOOK_URL", ""),
			ChannelId:     getEnvString("BROADCAST_CHANNEL_ID", ""),
		},
		Formance: models.FormanceConfig{
			Enabled:      getEnvBool("FORMANCE_ENABLED", false),
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "signals-ledger"),
		},
		Listener: models.ListenerConfig{
			AssetsFile: getEnvString("ASSETS_FILE", "assets.yaml"),
		},
		PlansFile: getEnvString("PLANS_FILE", ""),
	}

	durations := []struct {
		key          string
		defaultValue time.Duration
		target       *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"PENDING_INVESTMENT_TTL", 0, &cfg.Engine.PendingTTL},
		{"SERVER_READ_TIMEOUT", 15 * time.Second, &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", 15 * time.Second, &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.Server.ShutdownTimeout},
		{"NOTIFY_ENQUEUE_TIMEOUT", 2 * time.Second, &cfg.Notify.EnqueueTimeout},
		{"BROADCAST_WEBHOOK_TIMEOUT", 10 * time.Second, &cfg.Notify.WebhookTimeout},
		{"LISTENER_LOOKBACK_WINDOW", 6 * time.Hour, &cfg.Listener.LookbackWindow},
		{"LISTENER_POLLING_INTERVAL", 30 * time.Second, &cfg.Listener.PollingInterval},
		{"LISTENER_CLEANUP_INTERVAL", 15 * time.Minute, &cfg.Listener.CleanupInterval},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultValue)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	switch cfg.Engine.ActiveCancelPolicy {
	case models.CancelPolicyNone, models.CancelPolicyRefund:
	default:
		return nil, fmt.Errorf("invalid ACTIVE_CANCEL_POLICY %q: must be %q or %q",
			cfg.Engine.ActiveCancelPolicy, models.CancelPolicyNone, models.CancelPolicyRefund)
	}

	if cfg.Formance.Enabled && (cfg.Formance.StackURL == "" || cfg.Formance.ClientID == "" || cfg.Formance.ClientSecret == "") {
		return nil, fmt.Errorf("FORMANCE_ENABLED requires FORMANCE_STACK_URL, FORMANCE_CLIENT_ID and FORMANCE_CLIENT_SECRET")
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

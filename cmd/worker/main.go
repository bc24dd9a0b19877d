package main

import (
	"signals-ledger-go/internal/common"
	"signals-ledger-go/internal/config"
	"signals-ledger-go/internal/notify"

	"go.uber.org/zap"
)

// worker drains the notification queue and broadcasts each investment event.
func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Notify.RedisAddr == "" {
		zap.L().Fatal("REDIS_ADDR is required to run the notification worker")
	}

	var broadcaster notify.Broadcaster = notify.LogBroadcaster{}
	if cfg.Notify.WebhookURL != "" {
		broadcaster = notify.NewWebhookBroadcaster(cfg.Notify.WebhookURL, cfg.Notify.ChannelId, cfg.Notify.WebhookTimeout)
	} else {
		zap.L().Warn("BROADCAST_WEBHOOK_URL not set, events will only be logged")
	}

	worker := notify.NewWorker(broadcaster)
	srv := notify.NewServer(common.RedisOpt(cfg.Notify), cfg.Notify)

	zap.L().Info("Starting notification worker",
		zap.String("redis_addr", cfg.Notify.RedisAddr),
		zap.String("queue", cfg.Notify.Queue))

	// Run blocks until SIGINT or SIGTERM and drains in-flight tasks.
	if err := srv.Run(worker.Mux()); err != nil {
		zap.L().Fatal("Notification worker failed", zap.Error(err))
	}
}

package notify

import (
	"context"
	"fmt"

	"signals-ledger-go/internal/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Worker struct {
	broadcaster Broadcaster
}

func NewWorker(broadcaster Broadcaster) *Worker {
	return &Worker{broadcaster: broadcaster}
}

func (w *Worker) HandleInvestmentEvent(ctx context.Context, t *asynq.Task) error {
	event, err := DecodeEvent(t.Payload())
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	message := FormatEvent(event)
	if message == "" {
		zap.L().Debug("Event not broadcast", zap.String("type", string(event.Type)))
		return nil
	}
	if err := w.broadcaster.Broadcast(ctx, message); err != nil {
		return fmt.Errorf("broadcast %s: %w", event.Id, err)
	}

	zap.L().Info("Event broadcast",
		zap.String("event_id", event.Id),
		zap.String("type", string(event.Type)))
	return nil
}

// NewServer builds the asynq server consuming the notification queue.
func NewServer(redisOpt asynq.RedisClientOpt, cfg models.NotifyConfig) *asynq.Server {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvestmentEvent, w.HandleInvestmentEvent)
	return mux
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signals-ledger-go/internal/models"

	"github.com/hibiken/asynq"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	TypeInvestmentEvent = "investment:event"

	DefaultQueue          = "notifications"
	defaultEnqueueTimeout = 2 * time.Second
	maxRetry              = 5
)

// Enqueuer is the part of *asynq.Client the queue sink needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands events to the asynq worker. The event id doubles as the
// task id, so a re-sent event is deduplicated by the queue.
type QueueSink struct {
	client  Enqueuer
	queue   string
	timeout time.Duration
}

func NewQueueSink(client Enqueuer, queue string, timeout time.Duration) *QueueSink {
	if queue == "" {
		queue = DefaultQueue
	}
	if timeout <= 0 {
		timeout = defaultEnqueueTimeout
	}
	return &QueueSink{client: client, queue: queue, timeout: timeout}
}

func (s *QueueSink) Notify(ctx context.Context, event models.Event) {
	payload, err := EncodeEvent(event)
	if err != nil {
		zap.L().Error("Failed to encode event", zap.String("event_id", event.Id), zap.Error(err))
		return
	}

	// The request may already be cancelled once the commit has happened.
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	task := asynq.NewTask(TypeInvestmentEvent, payload)
	_, err = s.client.EnqueueContext(enqueueCtx, task,
		asynq.TaskID(event.Id),
		asynq.Queue(s.queue),
		asynq.MaxRetry(maxRetry))
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			zap.L().Debug("Event already queued", zap.String("event_id", event.Id))
			return
		}
		zap.L().Warn("Failed to enqueue event",
			zap.String("event_id", event.Id),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func EncodeEvent(event models.Event) ([]byte, error) {
	return msgpack.Marshal(&event)
}

func DecodeEvent(payload []byte) (models.Event, error) {
	var event models.Event
	if err := msgpack.Unmarshal(payload, &event); err != nil {
		return models.Event{}, fmt.Errorf("msgpack.Unmarshal failed: %w", err)
	}
	return event, nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signals-ledger-go/internal/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	events []models.Event
}

func (c *captureSink) Notify(_ context.Context, event models.Event) {
	c.events = append(c.events, event)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("enqueue without deadline")
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, f.err
}

type fakeBroadcaster struct {
	messages []string
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func sampleEvent() models.Event {
	return models.Event{
		Id:           "evt-1",
		Type:         models.EventPaymentConfirmed,
		UserId:       "u1",
		InvestmentId: "inv1",
		Amount:       "200",
		Status:       "active",
		OccurredAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Attributes:   map[string]string{"plan_name": "Starter"},
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	MultiSink{a, NopSink{}, LogSink{}, b}.Notify(context.Background(), sampleEvent())
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestQueueSink_EnqueuesDecodableTask(t *testing.T) {
	client := &fakeEnqueuer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewQueueSink(client, "", 0).Notify(ctx, sampleEvent())

	require.Len(t, client.tasks, 1, "cancelled request context must not drop the event")
	assert.Equal(t, TypeInvestmentEvent, client.tasks[0].Type())

	event, err := DecodeEvent(client.tasks[0].Payload())
	require.NoError(t, err)
	assert.Equal(t, "inv1", event.InvestmentId)
	assert.Equal(t, "Starter", event.Attributes["plan_name"])
	assert.True(t, event.OccurredAt.Equal(sampleEvent().OccurredAt))
}

func TestQueueSink_SwallowsErrors(t *testing.T) {
	client := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	assert.NotPanics(t, func() {
		NewQueueSink(client, "q", time.Second).Notify(context.Background(), sampleEvent())
	})
}

func TestWorker_HandleInvestmentEvent(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	worker := NewWorker(broadcaster)

	payload, err := EncodeEvent(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, worker.HandleInvestmentEvent(context.Background(), asynq.NewTask(TypeInvestmentEvent, payload)))
	require.Len(t, broadcaster.messages, 1)
	assert.Equal(t, "New investment of 200 on the Starter plan is now active.", broadcaster.messages[0])

	quiet := sampleEvent()
	quiet.Type = models.EventInvestmentCreated
	payload, err = EncodeEvent(quiet)
	require.NoError(t, err)
	require.NoError(t, worker.HandleInvestmentEvent(context.Background(), asynq.NewTask(TypeInvestmentEvent, payload)))
	assert.Len(t, broadcaster.messages, 1)

	err = worker.HandleInvestmentEvent(context.Background(), asynq.NewTask(TypeInvestmentEvent, []byte{0xc1}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWebhookBroadcaster(t *testing.T) {
	var got webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewWebhookBroadcaster(server.URL, "@signals", time.Second).Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, webhookMessage{ChatId: "@signals", Text: "hello"}, got)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer failing.Close()

	err = NewWebhookBroadcaster(failing.URL, "@signals", time.Second).Broadcast(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

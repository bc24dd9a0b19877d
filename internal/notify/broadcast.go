package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"signals-ledger-go/internal/models"

	"go.uber.org/zap"
)

// Broadcaster posts a text message to the community channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) error
}

// LogBroadcaster only logs messages, for deployments without a channel.
type LogBroadcaster struct{}

func (LogBroadcaster) Broadcast(_ context.Context, message string) error {
	zap.L().Info("Broadcast", zap.String("message", message))
	return nil
}

// WebhookBroadcaster posts {"chat_id", "text"} JSON to a bot webhook.
type WebhookBroadcaster struct {
	url       string
	channelId string
	client    *http.Client
}

func NewWebhookBroadcaster(url, channelId string, timeout time.Duration) *WebhookBroadcaster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookBroadcaster{url: url, channelId: channelId, client: &http.Client{Timeout: timeout}}
}

type webhookMessage struct {
	ChatId string `json:"chat_id"`
	Text   string `json:"text"`
}

func (b *WebhookBroadcaster) Broadcast(ctx context.Context, message string) error {
	body, err := json.Marshal(webhookMessage{ChatId: b.channelId, Text: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// FormatEvent renders the channel message for an event. Events without a
// public message return "".
func FormatEvent(event models.Event) string {
	plan := event.Attributes["plan_name"]
	switch event.Type {
	case models.EventPaymentConfirmed:
		return fmt.Sprintf("New investment of %s on the %s plan is now active.", event.Amount, plan)
	case models.EventInvestmentCompleted:
		return fmt.Sprintf("An investment on the %s plan just paid out %s.", plan, event.Amount)
	}
	return ""
}

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/astrodesk/consult-platform/internal/model"
)

const (
	// StreamName is the name of the billing events stream.
	StreamName = "BILLING"

	// SubjectPrefix is the prefix for all billing subjects.
	SubjectPrefix = "billing"
)

// EventPublisher publishes billing audit events to JetStream. The
// stream is the durable trail used for manual reconciliation when a
// refund does not complete.
type EventPublisher struct {
	client *Client
}

// NewEventPublisher creates a publisher over an established connection.
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// EnsureStream ensures the billing stream exists.
func (p *EventPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Billing and message lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for a billing event.
func EventSubject(eventType model.EventType, walletID string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, eventType, walletID)
}

// PublishBillingEvent publishes a billing event.
func (p *EventPublisher) PublishBillingEvent(ctx context.Context, event *model.BillingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.JetStream().Publish(ctx, EventSubject(event.Type, event.WalletID), data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

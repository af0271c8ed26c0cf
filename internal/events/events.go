// Package events publishes user activity (generation created, todo toggled,
// ...) for downstream consumers. Publishing is fire-and-forget: a broker
// outage never fails the user's request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Type names an activity.
type Type string

const (
	GenerationCreated Type = "generation.created"
	GenerationDeleted Type = "generation.deleted"
	TodoCreated       Type = "todo.created"
	TodoCompleted     Type = "todo.completed"
	TodoReopened      Type = "todo.reopened"
	TodoDeleted       Type = "todo.deleted"
	UserSignedUp      Type = "user.signed_up"
)

// Event is the JSON payload written to the topic.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(t Type, userID, entityID string) Event {
	return Event{Type: t, UserID: userID, EntityID: entityID, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. Used when KAFKA_BROKERS is empty.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Kafka writes events to a topic with an async writer, keyed by user ID so
// one user's events stay ordered within a partition.
type Kafka struct {
	writer *kafka.Writer
}

var _ Publisher = (*Kafka)(nil)

func NewKafka(brokers []string, topic string, logger *slog.Logger) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			Async:        true,
			RequiredAcks: kafka.RequireOne,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Warn("kafka publish failed", "messages", len(messages), "error", err)
				}
			},
		},
	}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encoding %s: %w", e.Type, err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: payload,
		Time:  e.OccurredAt,
	})
}

// Close flushes pending messages.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

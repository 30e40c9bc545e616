// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionAssigned      = "assigned"
)

// OrderEvent is the envelope written to the order topic.
type OrderEvent struct {
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewOrderEvent builds an event for order id. Metadata is filled from
// alternating key/value pairs.
func NewOrderEvent(id uint, action string, data any, kv ...string) OrderEvent {
	meta := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		meta[kv[i]] = kv[i+1]
	}
	return OrderEvent{
		Entity:     "order",
		Action:     action,
		ResourceID: strconv.FormatUint(uint64(id), 10),
		Metadata:   meta,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...OrderEvent) error
	Close() error
}

// KafkaPublisher keys messages by order id so one order's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...OrderEvent) error {
	msgs, err := Encode(events...)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing order events: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode turns events into kafka messages keyed by resource id.
func Encode(events ...OrderEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encoding %s.%s event: %w", e.Entity, e.Action, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.ResourceID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "entity", Value: []byte(e.Entity)},
				{Key: "action", Value: []byte(e.Action)},
			},
			Time: e.OccurredAt,
		})
	}
	return msgs, nil
}

// LogPublisher writes events to the log when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, events ...OrderEvent) error {
	for _, e := range events {
		p.logger.Info().
			Str("entity", e.Entity).
			Str("action", e.Action).
			Str("resource_id", e.ResourceID).
			Interface("metadata", e.Metadata).
			Msg("order event")
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }

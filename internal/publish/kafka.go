// Package publish forwards detected spike events to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ge-price-lab/internal/domain"
)

// EventSpikeDetected is the event type of every spike message.
const EventSpikeDetected = "SPIKE_DETECTED"

// SpikeMessage is the JSON value written for one spike.
type SpikeMessage struct {
	EventType   string             `json:"event_type"`
	Spike       *domain.SpikeEvent `json:"spike"`
	PublishedAt time.Time          `json:"published_at"`
}

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes spike events keyed by item id, so that all events
// for one item land on the same partition.
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// Publish writes all events in one WriteMessages call.
func (p *Producer) Publish(ctx context.Context, events []*domain.SpikeEvent) error {
	if len(events) == 0 {
		return nil
	}

	publishedAt := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(SpikeMessage{
			EventType:   EventSpikeDetected,
			Spike:       e,
			PublishedAt: publishedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal spike: %w", err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(e.ItemID, 10)),
			Value: data,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d messages to kafka: %w", len(msgs), err)
	}

	return nil
}

// Topic returns the destination topic.
func (p *Producer) Topic() string {
	return p.topic
}

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

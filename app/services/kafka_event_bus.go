package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/segmentio/kafka-go"
)

// KafkaEventBusConfig configures the Kafka transport of change events
type KafkaEventBusConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MaxWait  time.Duration
	MaxBytes int
}

// KafkaEventBus publishes change events to a topic keyed by entity so that
// events of one entity keep their order, and consumes them in a consumer group.
type KafkaEventBus struct {
	cfg    KafkaEventBusConfig
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafkaEventBus creates a Kafka backed bus
func NewKafkaEventBus(cfg KafkaEventBusConfig) (*KafkaEventBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka consumer group is required")
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Printf("kafka reader error: "+msg, args...)
		}),
	})

	return &KafkaEventBus{cfg: cfg, writer: writer, reader: reader}, nil
}

func (b *KafkaEventBus) Publish(ctx context.Context, event models.ChangeEvent) error {
	if !event.Kind.Valid() {
		return fmt.Errorf("invalid change kind %q", event.Kind)
	}
	msg, err := encodeChangeEvent(event)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish change event %s: %w", event.ID, err)
	}
	return nil
}

// Consume commits a message only after the handler returned. Undecodable
// messages are committed and skipped.
func (b *KafkaEventBus) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch change event: %w", err)
		}

		ev, err := decodeChangeEvent(msg)
		if err != nil {
			log.Printf("kafka event bus: skipping message at offset %d: %v", msg.Offset, err)
		} else if err := handler(ctx, ev); err != nil {
			log.Printf("kafka event bus: handler failed for %s (%s): %v", ev.Key(), ev.ID, err)
		}

		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (b *KafkaEventBus) Close() error {
	werr := b.writer.Close()
	rerr := b.reader.Close()
	return errors.Join(werr, rerr)
}

func encodeChangeEvent(event models.ChangeEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode change event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}, nil
}

func decodeChangeEvent(msg kafka.Message) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode change event: %w", err)
	}
	if !ev.Kind.Valid() {
		return ev, fmt.Errorf("invalid change kind %q", ev.Kind)
	}
	return ev, nil
}

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"heating_curve/internal/config"
	"heating_curve/internal/logger"
	"heating_curve/internal/models"

	"github.com/segmentio/kafka-go"
)

const stateKey = "heating-curve"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StateRecord is the Kafka message value.
type StateRecord struct {
	PublishedAt time.Time      `json:"published_at"`
	State       models.Payload `json:"state"`
}

// KafkaPublisher forwards every tile payload to a topic.
type KafkaPublisher struct {
	w   messageWriter
	log *logger.Logger
	now func() time.Time
}

// NewKafkaPublisher builds an async writer for cfg.Topic. Delivery errors are
// logged, never returned to the publishing caller.
func NewKafkaPublisher(cfg config.Kafka, log *logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic must not be empty")
	}
	if log == nil {
		log = logger.Nop()
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Errorw("kafka_write_failed", "topic", cfg.Topic, "messages", len(msgs), "err", err)
			}
		},
	}
	return newKafkaPublisher(w, log), nil
}

func newKafkaPublisher(w messageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: w, log: log, now: time.Now}
}

func (k *KafkaPublisher) Publish(ctx context.Context, p models.Payload) error {
	value, err := json.Marshal(StateRecord{PublishedAt: k.now().UTC(), State: p})
	if err != nil {
		return fmt.Errorf("encode state record: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(stateKey), Value: value}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.w.Close()
}

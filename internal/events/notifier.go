// Package events delivers help-request lifecycle notifications to the
// outside world. The core publishes through the Notifier interface and knows
// nothing about the transport behind it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// Notifier receives one call per genuine lifecycle transition. Implementations
// must tolerate concurrent calls.
type Notifier interface {
	Notify(ctx context.Context, event models.RequestEvent) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event models.RequestEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event models.RequestEvent) error {
	return f(ctx, event)
}

// LogNotifier writes events to the process log. It is the default when Kafka
// publishing is disabled.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event models.RequestEvent) error {
	switch event.Type {
	case models.EventRequestTimeout:
		log.Printf("request %s timed out (%s): %q", event.RequestID, event.Reason, event.Question)
	case models.EventRequestResolved:
		log.Printf("request %s resolved, notifying customer %s: %q", event.RequestID, event.CustomerID, event.Answer)
	default:
		log.Printf("request %s event %s", event.RequestID, event.Type)
	}
	return nil
}

// Kafka topics for request lifecycle events.
const (
	TopicRequestTimeout  = "helpdesk.request.timeout"
	TopicRequestResolved = "helpdesk.request.resolved"
)

// KafkaConfig configures the Kafka notifier.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// KafkaNotifier publishes request events as JSON messages, one topic per
// event type, keyed by request id so per-request ordering is preserved.
type KafkaNotifier struct {
	producer *kafka.Writer
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 10 * time.Millisecond
	}
	producer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
	}
	return &KafkaNotifier{producer: producer}
}

func topicFor(t models.RequestEventType) (string, error) {
	switch t {
	case models.EventRequestTimeout:
		return TopicRequestTimeout, nil
	case models.EventRequestResolved:
		return TopicRequestResolved, nil
	}
	return "", fmt.Errorf("no topic for event type %q", t)
}

// Notify publishes the event.
func (n *KafkaNotifier) Notify(ctx context.Context, event models.RequestEvent) error {
	topic, err := topicFor(event.Type)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(event.RequestID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(string(event.Type))},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
		Time: time.Now(),
	}
	return n.producer.WriteMessages(ctx, message)
}

// Close flushes and closes the producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

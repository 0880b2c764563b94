package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skaldic/muse/internal/agent"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// DefaultTopic is the Kafka topic records are produced to unless
// configured otherwise.
const DefaultTopic = "muse.analyses"

// Kafka produces records to a Kafka-compatible broker, keyed by content
// fingerprint so repeats of the same content land in one partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string, logger *zap.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	logger.Info("kafka sink ready",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic))
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Accept produces the record synchronously.
func (s *Kafka) Accept(ctx context.Context, rec *agent.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	results := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   []byte(rec.Item.Fingerprint),
		Value: data,
	})
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", s.topic, err)
	}
	return nil
}

// Close shuts down the producer.
func (s *Kafka) Close() error {
	s.client.Close()
	return nil
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

// KafkaStore publishes audit events to a Kafka topic. Kafka is the durable
// sink; ListByUser is served by downstream consumers, not this store.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore wraps an existing franz-go client.
func NewKafkaStore(client *kgo.Client, topic string) *KafkaStore {
	return &KafkaStore{client: client, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByUser is not supported on the Kafka sink.
func (s *KafkaStore) ListByUser(_ context.Context, _ id.UserID) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"govnav/internal/form"
	id "govnav/pkg/domain"
)

// KafkaGateway hands accepted submissions to the external processing system
// by producing them to its intake topic. The external reference is the
// partition and offset of the produced record.
type KafkaGateway struct {
	client *kgo.Client
	topic  string
}

// NewKafkaGateway wraps an existing franz-go client.
func NewKafkaGateway(client *kgo.Client, topic string) *KafkaGateway {
	return &KafkaGateway{client: client, topic: topic}
}

type intakeRecord struct {
	ApplicationID string                         `json:"application_id"`
	SessionID     string                         `json:"session_id"`
	UserID        string                         `json:"user_id"`
	ServiceID     string                         `json:"service_id"`
	ContentHash   string                         `json:"content_hash"`
	SubmittedAt   time.Time                      `json:"submitted_at"`
	Values        map[id.FieldID]form.FieldValue `json:"values"`
}

func (g *KafkaGateway) SubmitApplication(ctx context.Context, app Application, values map[id.FieldID]form.FieldValue) (string, error) {
	payload, err := json.Marshal(intakeRecord{
		ApplicationID: app.ID.String(),
		SessionID:     app.SessionID.String(),
		UserID:        app.UserID.String(),
		ServiceID:     string(app.ServiceID),
		ContentHash:   app.ContentHash,
		SubmittedAt:   app.SubmittedAt,
		Values:        values,
	})
	if err != nil {
		return "", fmt.Errorf("marshal intake record: %w", err)
	}
	record := &kgo.Record{
		Topic: g.topic,
		Key:   []byte(app.ID.String()),
		Value: payload,
	}
	result := g.client.ProduceSync(ctx, record)
	if err := result.FirstErr(); err != nil {
		return "", fmt.Errorf("produce intake record: %w", err)
	}
	produced, _ := result.First()
	return fmt.Sprintf("%s/%d/%d", g.topic, produced.Partition, produced.Offset), nil
}

// StubGateway accepts everything and remembers what it saw. Used when no
// external system is configured, and by tests.
type StubGateway struct {
	mu       sync.Mutex
	accepted []Application
}

// NewStubGateway constructs an accept-all gateway.
func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

func (g *StubGateway) SubmitApplication(_ context.Context, app Application, _ map[id.FieldID]form.FieldValue) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accepted = append(g.accepted, app)
	return "stub/" + app.ID.String(), nil
}

// Accepted returns the applications the gateway has seen.
func (g *StubGateway) Accepted() []Application {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Application(nil), g.accepted...)
}

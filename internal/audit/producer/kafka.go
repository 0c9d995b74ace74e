// Package producer emits audit events to Kafka for downstream consumers
// (SIEM pipelines, alerting). Emission is best-effort; the durable record is
// the database row.
package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"auth-gateway/internal/audit/domain"
)

// KafkaProducer writes audit events to a Kafka topic using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a producer writing to topic on brokers. Returns
// nil (and no error) when brokers or topic are unset, so callers can wire it
// unconditionally. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

type wireEvent struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id,omitempty"`
	PersonID  string    `json:"person_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Emit serializes the event as JSON and writes it, keyed by org so a consumer
// sees one org's events in order. Uses a short timeout so a slow broker does
// not block the login path.
func (p *KafkaProducer) Emit(ctx context.Context, e *domain.Event) error {
	if p == nil || p.writer == nil || e == nil {
		return nil
	}
	payload, err := json.Marshal(wireEvent{
		ID: e.ID, OrgID: e.OrgID, PersonID: e.PersonID,
		Action: e.Action, Outcome: e.Outcome, IP: e.IP,
		Metadata: e.Metadata, CreatedAt: e.CreatedAt,
	})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.OrgID),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

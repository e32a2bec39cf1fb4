// Package events publishes candidate status changes for downstream consumers
// (notification workers, reporting).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StatusChanged is emitted after a candidate moves between statuses.
type StatusChanged struct {
	EventID     string    `json:"event_id"`
	CandidateID string    `json:"candidate_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorID     string    `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewStatusChanged fills in the event ID and timestamp.
func NewStatusChanged(candidateID primitive.ObjectID, from, to string, actorID *primitive.ObjectID) StatusChanged {
	ev := StatusChanged{
		EventID:     uuid.NewString(),
		CandidateID: candidateID.Hex(),
		From:        from,
		To:          to,
		OccurredAt:  time.Now().UTC(),
	}
	if actorID != nil {
		ev.ActorID = actorID.Hex()
	}
	return ev
}

// Publisher sends status events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
	Close() error
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
func (Nop) Close() error                                              { return nil }

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by candidate ID so one
// candidate's events stay ordered within a partition.
type KafkaPublisher struct {
	w   messageWriter
	log *zap.Logger
}

// NewKafka builds a publisher for a comma-separated broker list.
func NewKafka(brokers, topic string, log *zap.Logger) *KafkaPublisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// PublishStatusChanged writes one message.
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.CandidateID),
		Value: body,
		Time:  ev.OccurredAt,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// New returns a KafkaPublisher when brokers is set, otherwise Nop.
func New(brokers, topic string, log *zap.Logger) Publisher {
	if strings.TrimSpace(brokers) == "" {
		return Nop{}
	}
	return NewKafka(brokers, topic, log)
}

// PublishBestEffort publishes ev and logs a failure instead of returning it.
func PublishBestEffort(ctx context.Context, p Publisher, log *zap.Logger, ev StatusChanged) {
	if p == nil {
		return
	}
	if err := p.PublishStatusChanged(ctx, ev); err != nil && log != nil {
		log.Warn("status event not published",
			zap.String("candidate_id", ev.CandidateID),
			zap.String("to", ev.To),
			zap.Error(err))
	}
}

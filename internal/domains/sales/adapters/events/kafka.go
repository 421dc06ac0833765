package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// EventVersion is bumped whenever a payload shape changes incompatibly.
const EventVersion = 1

// Envelope wraps every sales event written to Kafka.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Publisher writes sales events to a Kafka topic, keyed by aggregate id.
type Publisher struct {
	writer   messageWriter
	producer string
	newID    func() string
}

func NewPublisher(writer messageWriter, producer string) *Publisher {
	if producer == "" {
		producer = "storefront-api"
	}
	return &Publisher{writer: writer, producer: producer, newID: uuid.NewString}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	env := Envelope{
		EventID:       p.newID(),
		EventType:     event.Type,
		EventVersion:  EventVersion,
		OccurredAt:    event.OccurredAt.UTC(),
		Producer:      p.producer,
		CorrelationID: event.AggregateID,
		Payload:       payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(event.Type)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(EventVersion))},
		},
	})
}

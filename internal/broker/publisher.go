// Package broker publishes domain events and marketing list requests to Kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter builds a writer without a fixed topic; each message names its own.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

type Publisher struct {
	w              MessageWriter
	eventsTopic    string
	marketingTopic string
}

func NewPublisher(w MessageWriter, eventsTopic, marketingTopic string) *Publisher {
	return &Publisher{w: w, eventsTopic: eventsTopic, marketingTopic: marketingTopic}
}

// EventMessage is the wire form of a DomainEvent.
type EventMessage struct {
	ID          uuid.UUID             `json:"id"`
	EventType   model.DomainEventType `json:"event_type"`
	DisplayText string                `json:"display_text"`
	MainTable   model.Table           `json:"main_table"`
	MainID      *uuid.UUID            `json:"main_id,omitempty"`
	UserID      *uuid.UUID            `json:"user_id,omitempty"`
	EventData   json.RawMessage       `json:"event_data,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// PublishDomainEvent sends e keyed by its subject row so events for one
// entity stay ordered within a partition.
func (p *Publisher) PublishDomainEvent(ctx context.Context, e model.DomainEvent) error {
	msg := EventMessage{
		ID:          e.ID,
		EventType:   e.EventType,
		DisplayText: e.DisplayText,
		MainTable:   e.MainTable,
		MainID:      e.MainID,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
	}
	if len(e.EventData) > 0 {
		msg.EventData = json.RawMessage(e.EventData)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	key := e.ID.String()
	if e.MainID != nil {
		key = e.MainID.String()
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.eventsTopic,
		Key:   []byte(key),
		Value: b,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	})
}

// EventListRequest asks the marketing platform to create a contact list.
type EventListRequest struct {
	EventID  uuid.UUID `json:"event_id"`
	ListName string    `json:"list_name"`
}

// PublishEventList sends an event list request to the marketing topic.
func (p *Publisher) PublishEventList(ctx context.Context, req EventListRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal event list %s: %w", req.EventID, err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.marketingTopic,
		Key:   []byte(req.EventID.String()),
		Value: b,
	})
}

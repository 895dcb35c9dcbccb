package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DomainEvent is an audit record of something that already happened. The
// poller publishes unpublished events to the broker.
type DomainEvent struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EventType   DomainEventType `gorm:"size:64;not null;index" json:"event_type"`
	DisplayText string          `gorm:"not null" json:"display_text"`
	EventData   datatypes.JSON  `json:"event_data"`
	MainTable   Table           `gorm:"size:64;not null;index:idx_domain_events_main" json:"main_table"`
	MainID      *uuid.UUID      `gorm:"type:uuid;index:idx_domain_events_main" json:"main_id"`
	UserID      *uuid.UUID      `gorm:"type:uuid" json:"user_id"`
	PublishedAt *time.Time      `gorm:"index" json:"published_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DomainEvent) TableName() string { return "domain_events" }

func (e *DomainEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewDomainEvent prepares an unsaved event; data may be nil.
func NewDomainEvent(t DomainEventType, text string, table Table, mainID *uuid.UUID, userID *uuid.UUID, data any) (*DomainEvent, error) {
	e := &DomainEvent{
		EventType:   t,
		DisplayText: text,
		MainTable:   table,
		MainID:      mainID,
		UserID:      userID,
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s event data: %w", t, err)
		}
		e.EventData = datatypes.JSON(b)
	}
	return e, nil
}

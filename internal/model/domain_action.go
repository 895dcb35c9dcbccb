package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultMaxAttemptCount is used by producers that do not care.
	DefaultMaxAttemptCount int64 = 3
	// DefaultExpiry is how long after scheduled_at a job stays eligible.
	DefaultExpiry = 7 * 24 * time.Hour
)

// DomainAction is a persisted unit of deferred work. Rows are never deleted.
type DomainAction struct {
	ID                       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DomainEventID            *uuid.UUID     `gorm:"type:uuid" json:"domain_event_id"`
	ActionType               ActionType     `gorm:"column:domain_action_type;size:64;not null;index" json:"domain_action_type"`
	CommunicationChannelType *ChannelType   `gorm:"size:16" json:"communication_channel_type"`
	Payload                  datatypes.JSON `gorm:"not null" json:"payload"`
	MainTable                *Table         `gorm:"size:64;index:idx_domain_actions_main" json:"main_table"`
	MainTableID              *uuid.UUID     `gorm:"type:uuid;index:idx_domain_actions_main" json:"main_table_id"`
	ScheduledAt              time.Time      `gorm:"not null" json:"scheduled_at"`
	ExpiresAt                time.Time      `gorm:"not null" json:"expires_at"`
	LastAttemptedAt          *time.Time     `json:"last_attempted_at"`
	AttemptCount             int64          `gorm:"not null;default:0" json:"attempt_count"`
	MaxAttemptCount          int64          `gorm:"not null" json:"max_attempt_count"`
	Status                   ActionStatus   `gorm:"size:32;not null;index" json:"status"`
	LastFailureReason        *string        `json:"last_failure_reason"`
	BlockedUntil             time.Time      `gorm:"not null" json:"blocked_until"`
	CreatedAt                time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DomainAction) TableName() string { return "domain_actions" }

func (a *DomainAction) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewDomainAction prepares an unsaved action. payload is marshalled to JSON;
// a nil payload is stored as an empty object.
func NewDomainAction(t ActionType, payload any, scheduledAt, expiresAt time.Time, maxAttempts int64) (*DomainAction, error) {
	raw := []byte("{}")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		raw = b
	}
	return &DomainAction{
		ActionType:      t,
		Payload:         datatypes.JSON(raw),
		ScheduledAt:     scheduledAt,
		ExpiresAt:       expiresAt,
		MaxAttemptCount: maxAttempts,
		Status:          ActionPending,
	}, nil
}

// WithMainTable points the action at its subject row.
func (a *DomainAction) WithMainTable(table Table, id uuid.UUID) *DomainAction {
	a.MainTable = &table
	a.MainTableID = &id
	return a
}

// WithChannel sets the communication channel.
func (a *DomainAction) WithChannel(c ChannelType) *DomainAction {
	a.CommunicationChannelType = &c
	return a
}

// WithDomainEvent records the event that triggered the action.
func (a *DomainAction) WithDomainEvent(id uuid.UUID) *DomainAction {
	a.DomainEventID = &id
	return a
}

// DecodePayload unmarshals the payload into v.
func (a *DomainAction) DecodePayload(v any) error {
	if err := json.Unmarshal(a.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload for action %s: %w", a.ActionType, a.ID, err)
	}
	return nil
}

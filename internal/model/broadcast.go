package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BroadcastStatus string

const (
	BroadcastPending    BroadcastStatus = "Pending"
	BroadcastInProgress BroadcastStatus = "InProgress"
	BroadcastCompleted  BroadcastStatus = "Completed"
	BroadcastCancelled  BroadcastStatus = "Cancelled"
)

type BroadcastType string

const (
	BroadcastCustom   BroadcastType = "Custom"
	BroadcastLastCall BroadcastType = "LastCall"
)

type BroadcastAudience string

const (
	AudiencePeopleAtTheEvent BroadcastAudience = "PeopleAtTheEvent"
	AudienceTicketHolders    BroadcastAudience = "TicketHolders"
)

// LastCallMessage is the fixed text of a LastCall broadcast.
const LastCallMessage = "🗣LAST CALL! 🍻The bar is closing soon, grab something now before it's too late!"

type Broadcast struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	EventID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"event_id"`
	NotificationType BroadcastType     `gorm:"size:16;not null" json:"notification_type"`
	Audience         BroadcastAudience `gorm:"size:32;not null" json:"audience"`
	Name             string            `gorm:"not null" json:"name"`
	Message          *string           `json:"message"`
	SendAt           *time.Time        `json:"send_at"`
	Status           BroadcastStatus   `gorm:"size:16;not null" json:"status"`
	SentQuantity     int64             `gorm:"not null;default:0" json:"sent_quantity"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Broadcast) TableName() string { return "broadcasts" }

func (b *Broadcast) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Text returns the message pushed to the audience.
func (b *Broadcast) Text() string {
	if b.NotificationType == BroadcastLastCall {
		return LastCallMessage
	}
	if b.Message == nil {
		return ""
	}
	return *b.Message
}

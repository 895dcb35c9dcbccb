package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HoldType string

const (
	HoldDiscount HoldType = "Discount"
	HoldComp     HoldType = "Comp"
)

// Hold reserves ticket inventory for a named purpose until EndAt.
type Hold struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	EventID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	TicketTypeID uuid.UUID  `gorm:"type:uuid;not null" json:"ticket_type_id"`
	HoldType     HoldType   `gorm:"size:16;not null" json:"hold_type"`
	EndAt        *time.Time `json:"end_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Hold) TableName() string { return "holds" }

func (h *Hold) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Ended reports whether the hold has an end time at or before now.
func (h *Hold) Ended(now time.Time) bool {
	return h.EndAt != nil && !h.EndAt.After(now)
}

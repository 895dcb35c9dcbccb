package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	EventStart *time.Time `json:"event_start"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type Artist struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Artist) TableName() string { return "artists" }

func (a *Artist) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type EventArtist struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ArtistID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (EventArtist) TableName() string { return "event_artists" }

type Genre struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

func (Genre) TableName() string { return "genres" }

func (g *Genre) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type ArtistGenre struct {
	ArtistID uuid.UUID `gorm:"type:uuid;primaryKey"`
	GenreID  uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (ArtistGenre) TableName() string { return "artist_genres" }

// EventGenre is derived from the event's artists.
type EventGenre struct {
	EventID uuid.UUID `gorm:"type:uuid;primaryKey"`
	GenreID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (EventGenre) TableName() string { return "event_genres" }

// UserGenre is derived from the events a user holds tickets for.
type UserGenre struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	GenreID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (UserGenre) TableName() string { return "user_genres" }

type TicketType struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Name    string    `gorm:"not null" json:"name"`
}

func (TicketType) TableName() string { return "ticket_types" }

func (t *TicketType) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TicketStatus string

const (
	TicketAvailable TicketStatus = "Available"
	TicketReserved  TicketStatus = "Reserved"
	TicketPurchased TicketStatus = "Purchased"
	TicketRedeemed  TicketStatus = "Redeemed"
	TicketNullified TicketStatus = "Nullified"
)

type TicketInstance struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TicketTypeID uuid.UUID    `gorm:"type:uuid;not null;index" json:"ticket_type_id"`
	HoldID       *uuid.UUID   `gorm:"type:uuid;index" json:"hold_id"`
	OwnerID      *uuid.UUID   `gorm:"type:uuid;index" json:"owner_id"`
	Status       TicketStatus `gorm:"size:16;not null" json:"status"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TicketInstance) TableName() string { return "ticket_instances" }

func (t *TicketInstance) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

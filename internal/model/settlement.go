package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "PendingSettlement"
	SettlementFinalized SettlementStatus = "FinalizedSettlement"
)

type Settlement struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"organization_id"`
	StartTime      time.Time        `gorm:"not null" json:"start_time"`
	EndTime        time.Time        `gorm:"not null" json:"end_time"`
	Status         SettlementStatus `gorm:"size:32;not null;index" json:"status"`
	Total          decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"total"`
	FinalizedAt    *time.Time       `json:"finalized_at"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Settlement) TableName() string { return "settlements" }

func (s *Settlement) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SettlementEntry struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SettlementID uuid.UUID       `gorm:"type:uuid;not null;index" json:"settlement_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
}

func (SettlementEntry) TableName() string { return "settlement_entries" }

func (e *SettlementEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

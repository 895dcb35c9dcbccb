package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderCancelled      OrderStatus = "Cancelled"
	OrderDraft          OrderStatus = "Draft"
	OrderPaid           OrderStatus = "Paid"
	OrderPendingPayment OrderStatus = "PendingPayment"
)

type OrderType string

const (
	OrderCart       OrderType = "Cart"
	OrderBackOffice OrderType = "BackOffice"
)

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	OnBehalfOfUserID *uuid.UUID      `gorm:"type:uuid" json:"on_behalf_of_user_id"`
	Status           OrderStatus     `gorm:"size:32;not null;index" json:"status"`
	OrderType        OrderType       `gorm:"size:16;not null" json:"order_type"`
	Total            decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total"`
	PaidAt           *time.Time      `json:"paid_at"`
	RetargetedAt     *time.Time      `json:"retargeted_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// PurchaserID is the user the order was placed for.
func (o *Order) PurchaserID() uuid.UUID {
	if o.OnBehalfOfUserID != nil {
		return *o.OnBehalfOfUserID
	}
	return o.UserID
}

type PaymentStatus string

const (
	PaymentAuthorized          PaymentStatus = "Authorized"
	PaymentCompleted           PaymentStatus = "Completed"
	PaymentRequested           PaymentStatus = "Requested"
	PaymentRefunded            PaymentStatus = "Refunded"
	PaymentUnpaid              PaymentStatus = "Unpaid"
	PaymentPendingConfirmation PaymentStatus = "PendingConfirmation"
	PaymentCancelled           PaymentStatus = "Cancelled"
	PaymentDraft               PaymentStatus = "Draft"
	PaymentUnknown             PaymentStatus = "Unknown"
)

type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ExternalReference string          `gorm:"size:128;not null;index" json:"external_reference"`
	Provider          string          `gorm:"size:32;not null" json:"provider"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status            PaymentStatus   `gorm:"size:32;not null" json:"status"`
	RawData           datatypes.JSON  `json:"raw_data"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

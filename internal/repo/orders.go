package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// GetOrder loads one order.
func (r *Repository) GetOrder(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// FindAbandonedOrders returns draft carts last touched in [from, to) that
// have not been retargeted yet.
func (r *Repository) FindAbandonedOrders(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]model.Order, error) {
	var out []model.Order
	err := db.WithContext(ctx).
		Where("status = ? AND order_type = ? AND retargeted_at IS NULL", model.OrderDraft, model.OrderCart).
		Where("updated_at >= ? AND updated_at < ?", from, to).
		Order("updated_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkOrderRetargeted stamps retargeted_at without touching updated_at.
func (r *Repository) MarkOrderRetargeted(ctx context.Context, db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).
		UpdateColumn("retargeted_at", at).Error
}

// MarkOrderPaid moves the order to Paid.
func (r *Repository) MarkOrderPaid(ctx context.Context, db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.OrderPaid, "paid_at": at}).Error
}

// GetPayment loads one payment.
func (r *Repository) GetPayment(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePaymentFromProvider records the provider's view of the payment.
// The amount and completion time are written only for completed payments.
func (r *Repository) UpdatePaymentFromProvider(ctx context.Context, db *gorm.DB, p *model.Payment, status model.PaymentStatus, amount decimal.Decimal, raw datatypes.JSON, at time.Time) error {
	updates := map[string]interface{}{
		"status":   status,
		"raw_data": raw,
	}
	if status == model.PaymentCompleted {
		updates["amount"] = amount
		updates["completed_at"] = at
	}
	if err := db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
		return err
	}
	p.Status = status
	p.RawData = raw
	if status == model.PaymentCompleted {
		p.Amount = amount
		p.CompletedAt = &at
	}
	return nil
}

// FindPaymentByReference returns the order's payment with the provider
// reference, or gorm.ErrRecordNotFound.
func (r *Repository) FindPaymentByReference(ctx context.Context, db *gorm.DB, orderID uuid.UUID, reference string) (*model.Payment, error) {
	var p model.Payment
	if err := db.WithContext(ctx).
		Where("order_id = ? AND external_reference = ?", orderID, reference).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a provider payment.
func (r *Repository) CreatePayment(ctx context.Context, db *gorm.DB, p *model.Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

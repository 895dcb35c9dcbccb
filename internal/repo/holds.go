package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// GetHoldForUpdate locks the hold row for the rest of the transaction.
func (r *Repository) GetHoldForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Hold, error) {
	var h model.Hold
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHold loads a hold without locking.
func (r *Repository) GetHold(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Hold, error) {
	var h model.Hold
	if err := db.WithContext(ctx).Where("id = ?", id).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// HoldQuantity returns the number of ticket instances assigned to the hold
// and how many of them are still available.
func (r *Repository) HoldQuantity(ctx context.Context, db *gorm.DB, holdID uuid.UUID) (total, remaining int64, err error) {
	if err = db.WithContext(ctx).Model(&model.TicketInstance{}).
		Where("hold_id = ?", holdID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&model.TicketInstance{}).
		Where("hold_id = ? AND status = ?", holdID, model.TicketAvailable).Count(&remaining).Error; err != nil {
		return 0, 0, err
	}
	return total, remaining, nil
}

// SetHoldQuantity resizes the hold to quantity instances by returning
// available instances to general inventory. Instances already sold from
// the hold cannot be released, so quantity may not go below that count.
func (r *Repository) SetHoldQuantity(ctx context.Context, tx *gorm.DB, holdID uuid.UUID, quantity int64) error {
	total, remaining, err := r.HoldQuantity(ctx, tx, holdID)
	if err != nil {
		return err
	}
	sold := total - remaining
	if quantity < sold {
		return fmt.Errorf("%w: hold %s has %d sold, cannot shrink to %d", ErrInvalidQuantity, holdID, sold, quantity)
	}
	if quantity > total {
		return fmt.Errorf("%w: hold %s has %d instances, cannot grow to %d", ErrInvalidQuantity, holdID, total, quantity)
	}
	release := int(total - quantity)
	if release == 0 {
		return nil
	}

	var ids []uuid.UUID
	if err := tx.WithContext(ctx).Model(&model.TicketInstance{}).
		Where("hold_id = ? AND status = ?", holdID, model.TicketAvailable).
		Order("id").Limit(release).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&model.TicketInstance{}).
		Where("id IN ?", ids).
		Update("hold_id", nil).Error
}

package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// FindDueSettlements locks pending settlements whose period has ended.
func (r *Repository) FindDueSettlements(ctx context.Context, tx *gorm.DB, now time.Time) ([]model.Settlement, error) {
	var out []model.Settlement
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND end_time <= ?", model.SettlementPending, now).
		Order("end_time").
		Find(&out).Error
	return out, err
}

// SettlementTotal sums the settlement's entries.
func (r *Repository) SettlementTotal(ctx context.Context, db *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	var entries []model.SettlementEntry
	if err := db.WithContext(ctx).Where("settlement_id = ?", id).Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// FinalizeSettlement writes the total and moves the settlement to finalized.
func (r *Repository) FinalizeSettlement(ctx context.Context, tx *gorm.DB, s *model.Settlement, total decimal.Decimal, at time.Time) error {
	res := tx.WithContext(ctx).Model(&model.Settlement{}).
		Where("id = ? AND status = ?", s.ID, model.SettlementPending).
		Updates(map[string]interface{}{
			"status":       model.SettlementFinalized,
			"total":        total,
			"finalized_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrency
	}
	s.Status = model.SettlementFinalized
	s.Total = total
	s.FinalizedAt = &at
	return nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// CreateDomainEvent writes an audit event on db.
func (r *Repository) CreateDomainEvent(ctx context.Context, db *gorm.DB, e *model.DomainEvent) error {
	return db.WithContext(ctx).Create(e).Error
}

// FindDomainEvents lists events of type t for a subject row, oldest first.
func (r *Repository) FindDomainEvents(ctx context.Context, db *gorm.DB, t model.DomainEventType, table model.Table, id uuid.UUID) ([]model.DomainEvent, error) {
	var out []model.DomainEvent
	err := db.WithContext(ctx).
		Where("event_type = ? AND main_table = ? AND main_id = ?", t, table, id).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// FindUnpublishedEvents pulls events not yet sent to the broker.
func (r *Repository) FindUnpublishedEvents(ctx context.Context, limit int) ([]model.DomainEvent, error) {
	var out []model.DomainEvent
	err := r.db.WithContext(ctx).Where("published_at IS NULL").Order("created_at").Limit(limit).Find(&out).Error
	return out, err
}

// MarkEventPublished sets published_at.
func (r *Repository) MarkEventPublished(ctx context.Context, id uuid.UUID) error {
	now := r.clock.Now()
	return r.db.WithContext(ctx).Model(&model.DomainEvent{}).Where("id = ?", id).
		Update("published_at", &now).Error
}

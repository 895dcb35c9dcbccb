package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// GetUser loads one user.
func (r *Repository) GetUser(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetEvent loads one event.
func (r *Repository) GetEvent(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// GetBroadcast loads a broadcast without locking.
func (r *Repository) GetBroadcast(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Broadcast, error) {
	var b model.Broadcast
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

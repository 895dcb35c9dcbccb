package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// EventIDsForArtist lists the events the artist plays at.
func (r *Repository) EventIDsForArtist(ctx context.Context, db *gorm.DB, artistID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&model.EventArtist{}).
		Where("artist_id = ?", artistID).Order("event_id").Pluck("event_id", &ids).Error
	return ids, err
}

// TicketHolderIDs lists users owning a ticket for the event.
func (r *Repository) TicketHolderIDs(ctx context.Context, db *gorm.DB, eventID uuid.UUID) ([]uuid.UUID, error) {
	ticketTypes := db.Model(&model.TicketType{}).Select("id").Where("event_id = ?", eventID)
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&model.TicketInstance{}).
		Distinct("owner_id").
		Where("ticket_type_id IN (?) AND owner_id IS NOT NULL", ticketTypes).
		Order("owner_id").
		Pluck("owner_id", &ids).Error
	return ids, err
}

// RefreshEventGenres rebuilds the event's genres from its artists' genres.
func (r *Repository) RefreshEventGenres(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]uuid.UUID, error) {
	artists := tx.Model(&model.EventArtist{}).Select("artist_id").Where("event_id = ?", eventID)
	var genreIDs []uuid.UUID
	if err := tx.WithContext(ctx).Model(&model.ArtistGenre{}).
		Distinct("genre_id").
		Where("artist_id IN (?)", artists).
		Order("genre_id").
		Pluck("genre_id", &genreIDs).Error; err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Where("event_id = ?", eventID).Delete(&model.EventGenre{}).Error; err != nil {
		return nil, err
	}
	if len(genreIDs) == 0 {
		return genreIDs, nil
	}
	rows := make([]model.EventGenre, 0, len(genreIDs))
	for _, g := range genreIDs {
		rows = append(rows, model.EventGenre{EventID: eventID, GenreID: g})
	}
	return genreIDs, tx.WithContext(ctx).Create(&rows).Error
}

// RefreshUserGenres rebuilds the user's genres from the events they hold
// tickets for.
func (r *Repository) RefreshUserGenres(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	ticketTypes := tx.Model(&model.TicketInstance{}).Select("ticket_type_id").Where("owner_id = ?", userID)
	events := tx.Model(&model.TicketType{}).Select("event_id").Where("id IN (?)", ticketTypes)
	var genreIDs []uuid.UUID
	if err := tx.WithContext(ctx).Model(&model.EventGenre{}).
		Distinct("genre_id").
		Where("event_id IN (?)", events).
		Order("genre_id").
		Pluck("genre_id", &genreIDs).Error; err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserGenre{}).Error; err != nil {
		return nil, err
	}
	if len(genreIDs) == 0 {
		return genreIDs, nil
	}
	rows := make([]model.UserGenre, 0, len(genreIDs))
	for _, g := range genreIDs {
		rows = append(rows, model.UserGenre{UserID: userID, GenreID: g})
	}
	return genreIDs, tx.WithContext(ctx).Create(&rows).Error
}

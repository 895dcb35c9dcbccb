package repo

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// GetBroadcastForUpdate locks the broadcast row.
func (r *Repository) GetBroadcastForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Broadcast, error) {
	var b model.Broadcast
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBroadcast writes the status and sent quantity.
func (r *Repository) UpdateBroadcast(ctx context.Context, db *gorm.DB, b *model.Broadcast) error {
	return db.WithContext(ctx).Model(&model.Broadcast{}).Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"status":        b.Status,
			"sent_quantity": b.SentQuantity,
		}).Error
}

// PushRecipient is one user the broadcast can reach, with all their device tokens.
type PushRecipient struct {
	UserID uuid.UUID
	Tokens []string
}

// BroadcastAudience resolves the push-capable users of the broadcast's
// audience. Ticket holders own a purchased or redeemed ticket for the
// event; people at the event have redeemed one.
func (r *Repository) BroadcastAudience(ctx context.Context, db *gorm.DB, b *model.Broadcast) ([]PushRecipient, error) {
	statuses := []model.TicketStatus{model.TicketPurchased, model.TicketRedeemed}
	if b.Audience == model.AudiencePeopleAtTheEvent {
		statuses = []model.TicketStatus{model.TicketRedeemed}
	}

	ticketTypes := db.Model(&model.TicketType{}).Select("id").Where("event_id = ?", b.EventID)
	owners := db.Model(&model.TicketInstance{}).Select("owner_id").
		Where("ticket_type_id IN (?) AND owner_id IS NOT NULL AND status IN ?", ticketTypes, statuses)

	var tokens []model.PushNotificationToken
	if err := db.WithContext(ctx).Where("user_id IN (?)", owners).Order("created_at").Find(&tokens).Error; err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]string)
	for _, t := range tokens {
		byUser[t.UserID] = append(byUser[t.UserID], t.Token)
	}
	out := make([]PushRecipient, 0, len(byUser))
	for id, toks := range byUser {
		out = append(out, PushRecipient{UserID: id, Tokens: toks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

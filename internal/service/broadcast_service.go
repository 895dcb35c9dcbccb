package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

type BroadcastService struct {
	repo  *repo.Repository
	clock clock.Clock
	log   *zap.SugaredLogger
}

func NewBroadcastService(r *repo.Repository, clk clock.Clock, log *zap.SugaredLogger) *BroadcastService {
	return &BroadcastService{repo: r, clock: clk, log: log}
}

// Send queues the push fan-out of a pending broadcast at its send_at, or
// now when send_at is unset or already past.
func (s *BroadcastService) Send(ctx context.Context, broadcastID uuid.UUID) (*model.DomainAction, error) {
	var action *model.DomainAction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.GetBroadcastForUpdate(ctx, tx, broadcastID)
		if err != nil {
			return err
		}
		switch b.Status {
		case model.BroadcastCancelled:
			return ErrBroadcastCancelled
		case model.BroadcastInProgress, model.BroadcastCompleted:
			return ErrBroadcastAlreadySent
		}
		pending, err := s.repo.HasPendingAction(ctx, tx, model.ActionBroadcastPushNotification, model.TableBroadcasts, b.ID)
		if err != nil {
			return err
		}
		if pending {
			return ErrAlreadyScheduled
		}

		sendAt := s.clock.Now()
		if b.SendAt != nil && b.SendAt.After(sendAt) {
			sendAt = *b.SendAt
		}
		action, err = s.repo.ScheduleAction(ctx, tx, model.ActionBroadcastPushNotification,
			model.BroadcastPushPayload{EventID: b.EventID}, model.TableBroadcasts.Ptr(), &b.ID, sendAt)
		if err != nil {
			return fmt.Errorf("schedule broadcast %s: %w", b.ID, err)
		}
		evt, err := model.NewDomainEvent(model.EventBroadcastStarted,
			fmt.Sprintf("Broadcast %s scheduled", b.Name), model.TableBroadcasts, &b.ID, nil,
			map[string]any{"send_at": sendAt, "domain_action_id": action.ID})
		if err != nil {
			return err
		}
		return s.repo.CreateDomainEvent(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("broadcast scheduled", "broadcast_id", broadcastID, "domain_action_id", action.ID, "scheduled_at", action.ScheduledAt)
	return action, nil
}

// Cancel marks the broadcast cancelled and cancels its queued fan-out. It
// returns how many actions were cancelled. A fan-out already running sees
// the cancelled status and sends nothing.
func (s *BroadcastService) Cancel(ctx context.Context, broadcastID uuid.UUID) (int64, error) {
	var cancelled int64
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.GetBroadcastForUpdate(ctx, tx, broadcastID)
		if err != nil {
			return err
		}
		if b.Status == model.BroadcastCancelled {
			return nil
		}
		if b.Status == model.BroadcastCompleted {
			return ErrBroadcastAlreadySent
		}
		b.Status = model.BroadcastCancelled
		if err := s.repo.UpdateBroadcast(ctx, tx, b); err != nil {
			return err
		}
		t := model.ActionBroadcastPushNotification
		cancelled, err = s.repo.CancelActions(ctx, tx, model.TableBroadcasts, b.ID, &t)
		if err != nil {
			return err
		}
		evt, err := model.NewDomainEvent(model.EventBroadcastCancelled,
			fmt.Sprintf("Broadcast %s cancelled", b.Name), model.TableBroadcasts, &b.ID, nil, nil)
		if err != nil {
			return err
		}
		return s.repo.CreateDomainEvent(ctx, tx, evt)
	})
	if err != nil {
		return 0, err
	}
	s.log.Infow("broadcast cancelled", "broadcast_id", broadcastID, "cancelled_actions", cancelled)
	return cancelled, nil
}

package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

type HoldService struct {
	repo *repo.Repository
	log  *zap.SugaredLogger
}

func NewHoldService(r *repo.Repository, log *zap.SugaredLogger) *HoldService {
	return &HoldService{repo: r, log: log}
}

// ScheduleRelease queues the release of a hold's unsold inventory at its
// end time.
func (s *HoldService) ScheduleRelease(ctx context.Context, holdID uuid.UUID) (*model.DomainAction, error) {
	var action *model.DomainAction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := s.repo.GetHoldForUpdate(ctx, tx, holdID)
		if err != nil {
			return err
		}
		if h.EndAt == nil {
			return ErrHoldHasNoEnd
		}
		pending, err := s.repo.HasPendingAction(ctx, tx, model.ActionReleaseHoldInventory, model.TableHolds, h.ID)
		if err != nil {
			return err
		}
		if pending {
			return ErrAlreadyScheduled
		}
		action, err = s.repo.ScheduleAction(ctx, tx, model.ActionReleaseHoldInventory, nil, model.TableHolds.Ptr(), &h.ID, *h.EndAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("hold release scheduled", "hold_id", holdID, "domain_action_id", action.ID, "scheduled_at", action.ScheduledAt)
	return action, nil
}

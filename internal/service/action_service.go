package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// recurringTypes reschedule themselves after every run.
var recurringTypes = []model.ActionType{
	model.ActionFinalizeSettlements,
	model.ActionRetargetAbandonedOrders,
}

type ActionService struct {
	repo  *repo.Repository
	clock clock.Clock
	log   *zap.SugaredLogger
}

func NewActionService(r *repo.Repository, clk clock.Clock, log *zap.SugaredLogger) *ActionService {
	return &ActionService{repo: r, clock: clk, log: log}
}

// ScheduleRecurring seeds each self-rescheduling action type that has no
// active row, due immediately. It restarts a chain after a fresh install or
// after its last link ran out of retries.
func (s *ActionService) ScheduleRecurring(ctx context.Context) ([]*model.DomainAction, error) {
	var created []*model.DomainAction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range recurringTypes {
			n, err := s.repo.CountActiveActions(ctx, tx, t)
			if err != nil {
				return fmt.Errorf("count %s: %w", t, err)
			}
			if n > 0 {
				continue
			}
			a, err := s.repo.ScheduleAction(ctx, tx, t, nil, nil, nil, s.clock.Now())
			if err != nil {
				return fmt.Errorf("schedule %s: %w", t, err)
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, a := range created {
		s.log.Infow("recurring action seeded", "domain_action_id", a.ID, "domain_action_type", a.ActionType)
	}
	return created, nil
}

// StuckActions lists actions overdue by more than threshold.
func (s *ActionService) StuckActions(ctx context.Context, threshold time.Duration) ([]model.DomainAction, error) {
	return s.repo.FindStuckActions(ctx, threshold)
}

// FindActions lists actions matching f.
func (s *ActionService) FindActions(ctx context.Context, f repo.ActionFilter) ([]model.DomainAction, error) {
	return s.repo.FindActions(ctx, f)
}

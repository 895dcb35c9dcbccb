package executors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// FinalizeSettlementsExecutor closes every pending settlement whose period
// has ended, then schedules its own next run.
type FinalizeSettlementsExecutor struct {
	repo     *repo.Repository
	book     *actions.Bookkeeper
	clock    clock.Clock
	log      *zap.SugaredLogger
	interval time.Duration
}

func NewFinalizeSettlementsExecutor(d Deps, interval time.Duration) *FinalizeSettlementsExecutor {
	return &FinalizeSettlementsExecutor{repo: d.Repo, book: d.Book, clock: d.Clock, log: d.Log, interval: interval}
}

func (e *FinalizeSettlementsExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *FinalizeSettlementsExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	tx := conn.Tx()
	now := e.clock.Now()

	due, err := e.repo.FindDueSettlements(ctx, tx, now)
	if err != nil {
		return fmt.Errorf("find due settlements: %w", err)
	}
	for i := range due {
		s := &due[i]
		total, err := e.repo.SettlementTotal(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if err := e.repo.FinalizeSettlement(ctx, tx, s, total, now); err != nil {
			return fmt.Errorf("finalize settlement %s: %w", s.ID, err)
		}
		evt, err := model.NewDomainEvent(model.EventSettlementFinalized, "Settlement finalized",
			model.TableSettlements, &s.ID, nil, map[string]string{"total": total.StringFixed(2)})
		if err != nil {
			return err
		}
		if err := e.repo.CreateDomainEvent(ctx, tx, evt); err != nil {
			return err
		}
	}
	e.log.Infow("settlements finalized", "domain_action_id", action.ID, "count", len(due))

	next := nextOccurrence(now, e.interval)
	if _, err := e.repo.ScheduleAction(ctx, tx, model.ActionFinalizeSettlements, nil, nil, nil, next); err != nil {
		return fmt.Errorf("schedule next settlement run: %w", err)
	}
	return nil
}

package executors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// ReleaseHoldInventoryExecutor returns the unsold tickets of an ended hold
// to general inventory.
type ReleaseHoldInventoryExecutor struct {
	repo  *repo.Repository
	book  *actions.Bookkeeper
	clock clock.Clock
	log   *zap.SugaredLogger
}

func NewReleaseHoldInventoryExecutor(d Deps) *ReleaseHoldInventoryExecutor {
	return &ReleaseHoldInventoryExecutor{repo: d.Repo, book: d.Book, clock: d.Clock, log: d.Log}
}

func (e *ReleaseHoldInventoryExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *ReleaseHoldInventoryExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	table, id, err := subject(action)
	if err != nil {
		return err
	}
	if table != model.TableHolds {
		return fmt.Errorf("%w: %s for %s", repo.ErrTableNotSupported, table, action.ActionType)
	}

	tx := conn.Tx()
	hold, err := e.repo.GetHoldForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("load hold %s: %w", id, err)
	}
	if hold.EndAt == nil {
		return nil
	}
	if !hold.Ended(e.clock.Now()) {
		return fmt.Errorf("%w: hold %s ends at %s", ErrHoldNotEnded, hold.ID, hold.EndAt.Format("2006-01-02T15:04:05Z07:00"))
	}

	total, remaining, err := e.repo.HoldQuantity(ctx, tx, hold.ID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return nil
	}
	sold := total - remaining
	if err := e.repo.SetHoldQuantity(ctx, tx, hold.ID, sold); err != nil {
		return err
	}

	evt, err := model.NewDomainEvent(model.EventHoldAutomaticallyReleased, fmt.Sprintf("Hold %s released", hold.Name),
		model.TableHolds, &hold.ID, nil, map[string]any{"hold": hold, "released": remaining, "quantity": sold})
	if err != nil {
		return err
	}
	if err := e.repo.CreateDomainEvent(ctx, tx, evt); err != nil {
		return err
	}
	e.log.Infow("hold inventory released", "domain_action_id", action.ID, "hold_id", hold.ID, "released", remaining)
	return nil
}

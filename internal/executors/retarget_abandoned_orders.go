package executors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

const retargetBatchSize = 500

// RetargetAbandonedOrdersExecutor emails users who left a cart behind, then
// schedules its own next run.
type RetargetAbandonedOrdersExecutor struct {
	repo       *repo.Repository
	book       *actions.Bookkeeper
	clock      clock.Clock
	log        *zap.SugaredLogger
	interval   time.Duration
	window     time.Duration
	templateID string
	frontEnd   string
}

func NewRetargetAbandonedOrdersExecutor(d Deps, interval, window time.Duration, cfg config.CommsConfig) *RetargetAbandonedOrdersExecutor {
	return &RetargetAbandonedOrdersExecutor{
		repo:       d.Repo,
		book:       d.Book,
		clock:      d.Clock,
		log:        d.Log,
		interval:   interval,
		window:     window,
		templateID: cfg.RetargetTemplateID,
		frontEnd:   strings.TrimRight(cfg.FrontEndURL, "/"),
	}
}

func (e *RetargetAbandonedOrdersExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *RetargetAbandonedOrdersExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	tx := conn.Tx()
	now := e.clock.Now()
	from, to := now.Add(-2*e.window), now.Add(-e.window)

	orders, err := e.repo.FindAbandonedOrders(ctx, tx, from, to, retargetBatchSize)
	if err != nil {
		return fmt.Errorf("find abandoned orders: %w", err)
	}
	sent := 0
	for _, o := range orders {
		user, err := e.repo.GetUser(ctx, tx, o.PurchaserID())
		if err != nil {
			return fmt.Errorf("load purchaser of order %s: %w", o.ID, err)
		}
		if user.Email == nil || *user.Email == "" {
			continue
		}
		comm := model.Communication{
			CommType:     model.CommEmail,
			Title:        "You left something in your cart",
			Destinations: []string{*user.Email},
			Categories:   []string{"retarget_abandoned_order"},
			ExtraData: map[string]string{
				"order_id": o.ID.String(),
				"cart_url": e.frontEnd + "/cart",
			},
		}
		if e.templateID != "" {
			comm.TemplateID = strPtr(e.templateID)
		}
		if _, err := e.repo.QueueCommunication(ctx, tx, comm, model.TableOrders, o.ID, nil); err != nil {
			return err
		}
		if err := e.repo.MarkOrderRetargeted(ctx, tx, o.ID, now); err != nil {
			return err
		}
		evt, err := model.NewDomainEvent(model.EventOrderRetargeted, "Abandoned cart email queued",
			model.TableOrders, &o.ID, &user.ID, nil)
		if err != nil {
			return err
		}
		if err := e.repo.CreateDomainEvent(ctx, tx, evt); err != nil {
			return err
		}
		sent++
	}
	e.log.Infow("abandoned orders retargeted", "domain_action_id", action.ID, "found", len(orders), "sent", sent)

	next := nextOccurrence(now, e.interval)
	if _, err := e.repo.ScheduleAction(ctx, tx, model.ActionRetargetAbandonedOrders, nil, nil, nil, next); err != nil {
		return fmt.Errorf("schedule next retarget run: %w", err)
	}
	return nil
}

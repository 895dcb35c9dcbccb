package executors

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// SendOrderCompleteExecutor queues the purchase confirmation email.
type SendOrderCompleteExecutor struct {
	repo       *repo.Repository
	book       *actions.Bookkeeper
	log        *zap.SugaredLogger
	templateID string
	frontEnd   string
}

func NewSendOrderCompleteExecutor(d Deps, cfg config.CommsConfig) *SendOrderCompleteExecutor {
	return &SendOrderCompleteExecutor{
		repo:       d.Repo,
		book:       d.Book,
		log:        d.Log,
		templateID: cfg.PurchaseCompletedTemplateID,
		frontEnd:   strings.TrimRight(cfg.FrontEndURL, "/"),
	}
}

func (e *SendOrderCompleteExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *SendOrderCompleteExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	id, err := subjectIn(action, model.TableOrders)
	if err != nil {
		return err
	}
	tx := conn.Tx()
	order, err := e.repo.GetOrder(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("load order %s: %w", id, err)
	}
	user, err := e.repo.GetUser(ctx, tx, order.PurchaserID())
	if err != nil {
		return fmt.Errorf("load purchaser of order %s: %w", order.ID, err)
	}
	if user.FirstName == nil || user.Email == nil || *user.Email == "" {
		e.log.Infow("purchaser has no name or email, skipping receipt", "domain_action_id", action.ID, "order_id", order.ID)
		return nil
	}

	comm := model.Communication{
		CommType:     model.CommEmail,
		Title:        "Your purchase is complete",
		Destinations: []string{*user.Email},
		Categories:   []string{"order_confirmation"},
		ExtraData: map[string]string{
			"name":      *user.FirstName,
			"order_id":  order.ID.String(),
			"total":     order.Total.StringFixed(2),
			"order_url": fmt.Sprintf("%s/orders/%s", e.frontEnd, order.ID),
		},
	}
	if e.templateID != "" {
		comm.TemplateID = strPtr(e.templateID)
	}
	_, err = e.repo.QueueCommunication(ctx, tx, comm, model.TableOrders, order.ID, action.DomainEventID)
	return err
}

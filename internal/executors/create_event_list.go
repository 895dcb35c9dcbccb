package executors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/broker"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

const eventListDateFormat = "Jan 2, 2006"

// CreateEventListExecutor asks the marketing platform for a contact list
// named after the event.
type CreateEventListExecutor struct {
	repo      *repo.Repository
	book      *actions.Bookkeeper
	log       *zap.SugaredLogger
	marketing MarketingPublisher
	blocked   bool
}

func NewCreateEventListExecutor(d Deps, blockExternalComms bool) *CreateEventListExecutor {
	return &CreateEventListExecutor{repo: d.Repo, book: d.Book, log: d.Log, marketing: d.Marketing, blocked: blockExternalComms}
}

func (e *CreateEventListExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *CreateEventListExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	var payload model.CreateEventListPayload
	if err := action.DecodePayload(&payload); err != nil {
		return err
	}
	event, err := e.repo.GetEvent(ctx, conn.Tx(), payload.EventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", payload.EventID, err)
	}
	req := broker.EventListRequest{EventID: event.ID, ListName: EventListName(event)}
	if e.blocked {
		e.log.Infow("external comms blocked, event list not created", "domain_action_id", action.ID, "list_name", req.ListName)
		return nil
	}
	e.log.Infow("creating event list", "domain_action_id", action.ID, "event_id", event.ID, "list_name", req.ListName)
	return e.marketing.PublishEventList(ctx, req)
}

// EventListName is "<event name> (<start date>)", or just the name for
// events without a start.
func EventListName(e *model.Event) string {
	if e.EventStart == nil {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, e.EventStart.Format(eventListDateFormat))
}

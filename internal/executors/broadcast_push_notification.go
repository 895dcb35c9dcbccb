package executors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// BroadcastPushNotificationExecutor fans a broadcast out into one push
// Communication action per reachable user.
type BroadcastPushNotificationExecutor struct {
	repo       *repo.Repository
	book       *actions.Bookkeeper
	log        *zap.SugaredLogger
	templateID string
}

func NewBroadcastPushNotificationExecutor(d Deps, templateID string) *BroadcastPushNotificationExecutor {
	return &BroadcastPushNotificationExecutor{repo: d.Repo, book: d.Book, log: d.Log, templateID: templateID}
}

func (e *BroadcastPushNotificationExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *BroadcastPushNotificationExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	id, err := subjectIn(action, model.TableBroadcasts)
	if err != nil {
		return err
	}
	tx := conn.Tx()
	b, err := e.repo.GetBroadcastForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("load broadcast %s: %w", id, err)
	}
	if b.Status == model.BroadcastCancelled {
		e.log.Infow("broadcast cancelled, nothing to send", "domain_action_id", action.ID, "broadcast_id", b.ID)
		return nil
	}

	// last call always targets the people in the venue
	if b.NotificationType == model.BroadcastLastCall {
		b.Audience = model.AudiencePeopleAtTheEvent
	}
	message := b.Text()

	recipients, err := e.repo.BroadcastAudience(ctx, tx, b)
	if err != nil {
		return fmt.Errorf("resolve audience of broadcast %s: %w", b.ID, err)
	}

	b.Status = model.BroadcastInProgress
	b.SentQuantity = int64(len(recipients))
	if err := e.repo.UpdateBroadcast(ctx, tx, b); err != nil {
		return err
	}

	var templateID *string
	if e.templateID != "" {
		templateID = strPtr(e.templateID)
	}
	for _, rcpt := range recipients {
		comm := model.Communication{
			CommType:     model.CommPush,
			Title:        message,
			Destinations: rcpt.Tokens,
			TemplateID:   templateID,
			Categories:   []string{"broadcast"},
			ExtraData: map[string]string{
				"broadcast_id": b.ID.String(),
				"event_id":     b.EventID.String(),
			},
		}
		if _, err := e.repo.QueueCommunication(ctx, tx, comm, model.TableEvents, b.EventID, action.DomainEventID); err != nil {
			return fmt.Errorf("queue push for user %s: %w", rcpt.UserID, err)
		}
	}
	return nil
}

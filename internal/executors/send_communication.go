package executors

import (
	"context"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/comms"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// SendCommunicationExecutor hands a Communication envelope to its transport.
type SendCommunicationExecutor struct {
	book    *actions.Bookkeeper
	sender  comms.Sender
	log     *zap.SugaredLogger
	blocked bool
}

func NewSendCommunicationExecutor(d Deps, blockExternalComms bool) *SendCommunicationExecutor {
	return &SendCommunicationExecutor{book: d.Book, sender: d.Comms, log: d.Log, blocked: blockExternalComms}
}

func (e *SendCommunicationExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	var comm model.Communication
	if err := action.DecodePayload(&comm); err != nil {
		return e.book.Wrap(ctx, action, conn, actions.Now(err))
	}
	if e.blocked {
		e.log.Infow("external comms blocked, communication not sent",
			"domain_action_id", action.ID, "comm_type", comm.CommType, "destinations", len(comm.Destinations))
		return e.book.Wrap(ctx, action, conn, actions.Now(nil))
	}
	return e.book.Wrap(ctx, action, conn, actions.Async(func() error {
		return e.sender.Send(ctx, action.ID, comm)
	}))
}

// Package executors holds one executor per domain action type and the
// router wiring that binds them.
package executors

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/broker"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/comms"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// MarketingPublisher sends marketing list requests.
type MarketingPublisher interface {
	PublishEventList(ctx context.Context, req broker.EventListRequest) error
}

// Deps are the collaborators shared by every executor.
type Deps struct {
	Repo       *repo.Repository
	Book       *actions.Bookkeeper
	Clock      clock.Clock
	Log        *zap.SugaredLogger
	Comms      comms.Sender
	Marketing  MarketingPublisher
	HTTPClient *http.Client
}

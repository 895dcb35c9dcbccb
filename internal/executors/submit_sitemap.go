package executors

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// Pinger submits a sitemap to search engines.
type Pinger interface {
	Ping(ctx context.Context, sitemapURL string) error
}

// SubmitSitemapExecutor pings search engines with the public sitemap. It
// touches no rows; the ping runs asynchronously.
type SubmitSitemapExecutor struct {
	book       *actions.Bookkeeper
	pinger     Pinger
	log        *zap.SugaredLogger
	sitemapURL string
	blocked    bool
}

func NewSubmitSitemapExecutor(d Deps, pinger Pinger, apiBaseURL string, blockExternalComms bool) *SubmitSitemapExecutor {
	return &SubmitSitemapExecutor{
		book:       d.Book,
		pinger:     pinger,
		log:        d.Log,
		sitemapURL: strings.TrimRight(apiBaseURL, "/") + "/sitemap.xml",
		blocked:    blockExternalComms,
	}
}

func (e *SubmitSitemapExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	if e.blocked {
		e.log.Debugw("external comms blocked, sitemap not submitted", "domain_action_id", action.ID)
		return e.book.Wrap(ctx, action, conn, actions.Now(nil))
	}
	return e.book.Wrap(ctx, action, conn, actions.Async(func() error {
		return e.pinger.Ping(ctx, e.sitemapURL)
	}))
}

package actions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// Store persists the outcome of an attempt.
type Store interface {
	SetDone(ctx context.Context, db *gorm.DB, a *model.DomainAction) error
	SetFailed(ctx context.Context, db *gorm.DB, a *model.DomainAction, reason string) error
}

// Future is the pending outcome of one executor run. It resolves once; after
// that Poll and Await keep returning the same result. A Future is driven by
// one goroutine at a time.
type Future struct {
	mu       sync.Mutex
	inner    <-chan error
	onReady  func(error) error
	onAbort  func(error) error
	resolved bool
	result   error
}

// Poll checks the inner result without blocking. While the executor is
// still running it returns false and has no side effects.
func (f *Future) Poll() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return true, f.result
	}
	select {
	case err := <-f.inner:
		f.resolve(err)
		return true, f.result
	default:
		return false, nil
	}
}

// Await blocks until the executor finishes or ctx is done. When ctx ends
// first the transaction is rolled back, ctx.Err() is returned and the
// attempt is not recorded; the action stays leased until its busy timeout.
func (f *Future) Await(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return f.result
	}
	// a finished run wins over a context that ended at the same time
	select {
	case err := <-f.inner:
		f.resolve(err)
		return f.result
	default:
	}
	select {
	case err := <-f.inner:
		f.resolve(err)
	case <-ctx.Done():
		f.abort(ctx.Err())
	}
	return f.result
}

func (f *Future) resolve(err error) {
	f.resolved = true
	if f.onReady == nil {
		f.result = err
		return
	}
	f.result = f.onReady(err)
}

func (f *Future) abort(cause error) {
	f.resolved = true
	f.result = cause
	if f.onAbort != nil {
		if err := f.onAbort(cause); err != nil {
			f.result = errors.Join(cause, err)
		}
	}
}

// Bookkeeper builds the futures executors return. It owns the commit or
// rollback of the action's transaction, the status update and the audit
// log line, so executors only report success or failure.
type Bookkeeper struct {
	store Store
	clock clock.Clock
	log   *zap.SugaredLogger
}

func NewBookkeeper(store Store, clk clock.Clock, log *zap.SugaredLogger) *Bookkeeper {
	return &Bookkeeper{store: store, clock: clk, log: log}
}

// Wrap couples inner to the action's bookkeeping.
//
// On success the action is marked Success inside the transaction, which is
// then committed. On failure the transaction is rolled back first and the
// failed attempt recorded outside it. Exactly one of commit or rollback
// happens. Errors from the status update are returned as is.
func (b *Bookkeeper) Wrap(ctx context.Context, action *model.DomainAction, conn *repo.Conn, inner <-chan error) *Future {
	return b.wrap(ctx, action, conn, b.clock.Now(), time.Now(), inner)
}

// Run executes job on the calling goroutine and wraps its result like Wrap.
// The reported duration includes the job.
func (b *Bookkeeper) Run(ctx context.Context, action *model.DomainAction, conn *repo.Conn, job func() error) *Future {
	startedAt, start := b.clock.Now(), time.Now()
	return b.wrap(ctx, action, conn, startedAt, start, Now(job()))
}

func (b *Bookkeeper) wrap(ctx context.Context, action *model.DomainAction, conn *repo.Conn, startedAt, start time.Time, inner <-chan error) *Future {
	log := b.log.With(
		"domain_action_id", action.ID,
		"domain_action_type", action.ActionType,
		"started_at", startedAt,
	)

	return &Future{
		inner: inner,
		onReady: func(err error) error {
			ms := time.Since(start).Milliseconds()
			if err == nil {
				log.Infow("domain action succeeded", "milliseconds_taken", ms)
				return b.done(ctx, action, conn)
			}
			log.Errorw("domain action failed", "milliseconds_taken", ms, "error", err.Error())
			return b.failed(ctx, action, conn, err)
		},
		onAbort: func(cause error) error {
			log.Warnw("domain action abandoned", "milliseconds_taken", time.Since(start).Milliseconds(), "error", cause.Error())
			if conn.Finished() {
				return nil
			}
			if err := conn.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				return err
			}
			return nil
		},
	}
}

func (b *Bookkeeper) done(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	if err := b.store.SetDone(ctx, conn.Tx(), action); err != nil {
		if rbErr := conn.Rollback(); rbErr != nil {
			b.log.Warnw("rollback after set done failure", "domain_action_id", action.ID, "error", rbErr.Error())
		}
		return fmt.Errorf("set done %s: %w", action.ID, err)
	}
	if err := conn.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", action.ID, err)
	}
	return nil
}

func (b *Bookkeeper) failed(ctx context.Context, action *model.DomainAction, conn *repo.Conn, cause error) error {
	if err := conn.Rollback(); err != nil {
		b.log.Warnw("rollback failed", "domain_action_id", action.ID, "error", err.Error())
	}
	if err := b.store.SetFailed(ctx, conn.DB(), action, cause.Error()); err != nil {
		return errors.Join(cause, fmt.Errorf("set failed %s: %w", action.ID, err))
	}
	return cause
}

package repo

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/backoff"
	"github.com/richardliu001/ticketing-actions/internal/clock"
)

var (
	// ErrConcurrency is returned when a conditional update matched no row
	// because another process changed it first.
	ErrConcurrency = errors.New("domain action was modified concurrently")
	// ErrInvalidAction is returned for rows that violate the domain action invariants.
	ErrInvalidAction = errors.New("invalid domain action")
	// ErrTableNotSupported is returned when an action points at a table its
	// executor cannot handle.
	ErrTableNotSupported = errors.New("table not supported")
	// ErrInvalidQuantity is returned when a hold cannot be resized as requested.
	ErrInvalidQuantity = errors.New("invalid hold quantity")
)

// Repository wraps every query the domain action engine runs. Methods that
// take a *gorm.DB run on that handle so callers decide whether the work
// joins an open transaction.
type Repository struct {
	db      *gorm.DB
	clock   clock.Clock
	backoff backoff.Policy
	log     *zap.SugaredLogger
}

// NewRepository constructs repo.
func NewRepository(db *gorm.DB, clk clock.Clock, policy backoff.Policy, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, clock: clk, backoff: policy, log: logger}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

// Begin opens the dedicated transaction an executor runs in.
func (r *Repository) Begin(ctx context.Context) (*Conn, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Conn{db: r.db, tx: tx}, nil
}

// Conn is one action's connection: an open transaction plus the base handle
// used for bookkeeping after a rollback. A Conn finishes exactly once.
type Conn struct {
	db       *gorm.DB
	tx       *gorm.DB
	finished bool
}

// Tx returns the open transaction.
func (c *Conn) Tx() *gorm.DB { return c.tx }

// DB returns a handle outside the transaction.
func (c *Conn) DB() *gorm.DB { return c.db }

// Commit commits the transaction. A finished Conn returns sql.ErrTxDone.
func (c *Conn) Commit() error {
	if c.finished {
		return sql.ErrTxDone
	}
	c.finished = true
	return c.tx.Commit().Error
}

// Rollback discards the transaction. A finished Conn returns sql.ErrTxDone.
func (c *Conn) Rollback() error {
	if c.finished {
		return sql.ErrTxDone
	}
	c.finished = true
	return c.tx.Rollback().Error
}

// Finished reports whether Commit or Rollback has been called.
func (c *Conn) Finished() bool { return c.finished }

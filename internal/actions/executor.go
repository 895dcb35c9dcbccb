// Package actions is the domain action engine core: the executor contract,
// the future that ties an executor's result to its transaction, and the
// router that maps every action type to exactly one executor.
package actions

import (
	"context"

	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// Executor runs the business logic of one action type. conn carries the
// transaction opened for this action alone; the returned Future commits or
// rolls it back.
type Executor interface {
	Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *Future
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *Future

func (f ExecutorFunc) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *Future {
	return f(ctx, action, conn)
}

// Now returns an already completed result.
func Now(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// Async runs fn on its own goroutine and delivers its result.
func Async(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return ch
}

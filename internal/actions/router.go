package actions

import (
	"errors"
	"fmt"
	"sync"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

var (
	ErrDuplicateExecutor = errors.New("executor already registered")
	ErrNoExecutor        = errors.New("no executor registered")
	ErrRouterFrozen      = errors.New("router is frozen")
	ErrUnknownActionType = errors.New("unknown action type")
)

// Router maps each action type to exactly one executor. It is filled once at
// start-up and frozen; lookups never change afterwards.
type Router struct {
	mu        sync.RWMutex
	executors map[model.ActionType]Executor
	frozen    bool
}

func NewRouter() *Router {
	return &Router{executors: make(map[model.ActionType]Executor)}
}

// AddExecutor registers e for t. A second registration for the same type
// fails and keeps the first one.
func (r *Router) AddExecutor(t model.ActionType, e Executor) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActionType, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("add %s: %w", t, ErrRouterFrozen)
	}
	if _, ok := r.executors[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExecutor, t)
	}
	r.executors[t] = e
	return nil
}

// ExecutorFor returns the executor for t.
func (r *Router) ExecutorFor(t model.ActionType) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[t]
	return e, ok
}

// Validate fails unless every known action type has an executor.
func (r *Router) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for _, t := range model.AllActionTypes() {
		if _, ok := r.executors[t]; !ok {
			errs = append(errs, fmt.Errorf("%w for %s", ErrNoExecutor, t))
		}
	}
	return errors.Join(errs...)
}

// Freeze rejects further registrations.
func (r *Router) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

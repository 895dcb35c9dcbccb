// Package monitor is the dispatcher: it leases due domain actions, runs each
// through its executor and publishes the domain events they leave behind.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// EventPublisher ships domain events to the broker.
type EventPublisher interface {
	PublishDomainEvent(ctx context.Context, e model.DomainEvent) error
}

// Monitor polls the domain_actions table.
type Monitor struct {
	repo      *repo.Repository
	router    *actions.Router
	publisher EventPublisher
	cfg       config.ActionsConfig
	log       *zap.SugaredLogger
}

func NewMonitor(r *repo.Repository, router *actions.Router, publisher EventPublisher, cfg config.ActionsConfig, log *zap.SugaredLogger) *Monitor {
	return &Monitor{repo: r, router: router, publisher: publisher, cfg: cfg, log: log}
}

// Job is a leased action paired with the executor that will run it.
type Job struct {
	Action   model.DomainAction
	Executor actions.Executor
}

// FindActions leases up to batch_size due actions. Rows leased by another
// dispatcher are skipped. A row whose type has no executor is failed so it
// cannot sit in the queue unnoticed.
func (m *Monitor) FindActions(ctx context.Context) ([]Job, error) {
	pending, err := m.repo.FindPendingActions(ctx, nil, m.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("find pending actions: %w", err)
	}
	jobs := make([]Job, 0, len(pending))
	for i := range pending {
		a := pending[i]
		if err := m.repo.SetBusy(ctx, &a, m.cfg.BusyTimeout); err != nil {
			if errors.Is(err, repo.ErrConcurrency) {
				continue
			}
			return jobs, fmt.Errorf("lease %s: %w", a.ID, err)
		}
		e, ok := m.router.ExecutorFor(a.ActionType)
		if !ok {
			m.log.Errorw("no executor for domain action",
				"domain_action_id", a.ID,
				"domain_action_type", a.ActionType,
				"error", actions.ErrNoExecutor.Error())
			reason := fmt.Sprintf("%s for %s", actions.ErrNoExecutor, a.ActionType)
			if err := m.repo.SetFailed(ctx, m.repo.DB(ctx), &a, reason); err != nil {
				m.log.Errorw("set failed", "domain_action_id", a.ID, "error", err.Error())
			}
			continue
		}
		jobs = append(jobs, Job{Action: a, Executor: e})
	}
	return jobs, nil
}

// RunOnce leases one batch and runs it on at most `workers` goroutines. It
// returns the number of actions attempted. Executor failures are recorded on
// the rows, not returned.
func (m *Monitor) RunOnce(ctx context.Context) (int, error) {
	jobs, err := m.FindActions(ctx)
	if err != nil && len(jobs) == 0 {
		return 0, err
	}
	if err != nil {
		m.log.Warnw("partial batch", "error", err.Error())
	}

	g := new(errgroup.Group)
	g.SetLimit(m.cfg.Workers)
	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			m.run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return len(jobs), nil
}

func (m *Monitor) run(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ActionTimeout)
	defer cancel()

	conn, err := m.repo.Begin(ctx)
	if err != nil {
		m.log.Errorw("begin transaction", "domain_action_id", job.Action.ID, "error", err.Error())
		return
	}
	action := job.Action
	// the bookkeeper logs and records the outcome
	_ = job.Executor.Execute(ctx, &action, conn).Await(ctx)
}

// RunActions dispatches until ctx is cancelled, sleeping poll_interval
// whenever a pass finds nothing to do.
func (m *Monitor) RunActions(ctx context.Context) error {
	m.log.Infow("domain action dispatcher started", "workers", m.cfg.Workers, "batch_size", m.cfg.BatchSize)
	for {
		n, err := m.RunOnce(ctx)
		if err != nil {
			m.log.Errorw("dispatch pass", "error", err.Error())
		}
		if n > 0 && err == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if !sleep(ctx, m.cfg.PollInterval) {
			return nil
		}
	}
}

// PublishEvents sends one batch of unpublished domain events and marks each
// published once the broker accepted it.
func (m *Monitor) PublishEvents(ctx context.Context) (int, error) {
	events, err := m.repo.FindUnpublishedEvents(ctx, m.cfg.EventBatchSize)
	if err != nil {
		return 0, fmt.Errorf("poll domain events: %w", err)
	}
	sent := 0
	for _, evt := range events {
		if err := m.publisher.PublishDomainEvent(ctx, evt); err != nil {
			m.log.Errorw("publish domain event", "domain_event_id", evt.ID, "error", err.Error())
			continue
		}
		if err := m.repo.MarkEventPublished(ctx, evt.ID); err != nil {
			m.log.Errorw("mark domain event published", "domain_event_id", evt.ID, "error", err.Error())
			continue
		}
		sent++
	}
	return sent, nil
}

// RunEventPublisher publishes events until ctx is cancelled.
func (m *Monitor) RunEventPublisher(ctx context.Context) error {
	for {
		n, err := m.PublishEvents(ctx)
		if err != nil {
			m.log.Errorw("publish pass", "error", err.Error())
		} else if n > 0 {
			m.log.Infow("domain events published", "count", n)
		}
		if !sleep(ctx, m.cfg.PollInterval) {
			return nil
		}
	}
}

// Run starts the dispatcher and the event publisher and blocks until both
// stop.
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.RunActions(ctx) })
	g.Go(func() error { return m.RunEventPublisher(ctx) })
	return g.Wait()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

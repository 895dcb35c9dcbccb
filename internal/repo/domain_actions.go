package repo

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

const maxFailureReasonLen = 2048

// CreateDomainAction inserts a new action on db. Producers pass their own
// transaction so the job and its trigger persist together.
func (r *Repository) CreateDomainAction(ctx context.Context, db *gorm.DB, a *model.DomainAction) error {
	if !a.ActionType.Valid() {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, a.ActionType)
	}
	if a.ScheduledAt.After(a.ExpiresAt) {
		return fmt.Errorf("%w: scheduled_at %s is after expires_at %s", ErrInvalidAction, a.ScheduledAt, a.ExpiresAt)
	}
	if a.MaxAttemptCount < 1 {
		return fmt.Errorf("%w: max_attempt_count must be at least 1", ErrInvalidAction)
	}
	if (a.MainTable == nil) != (a.MainTableID == nil) {
		return fmt.Errorf("%w: main_table and main_table_id must be set together", ErrInvalidAction)
	}
	now := r.clock.Now()
	a.Status = model.ActionPending
	a.AttemptCount = 0
	a.BlockedUntil = now
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.ExpiresAt = a.ExpiresAt.UTC()
	return db.WithContext(ctx).Create(a).Error
}

// ScheduleAction builds and inserts an action in one call.
func (r *Repository) ScheduleAction(ctx context.Context, db *gorm.DB, t model.ActionType, payload any, table *model.Table, id *uuid.UUID, scheduledAt time.Time) (*model.DomainAction, error) {
	a, err := model.NewDomainAction(t, payload, scheduledAt, scheduledAt.Add(model.DefaultExpiry), model.DefaultMaxAttemptCount)
	if err != nil {
		return nil, err
	}
	if table != nil && id != nil {
		a.WithMainTable(*table, *id)
	}
	if err := r.CreateDomainAction(ctx, db, a); err != nil {
		return nil, err
	}
	return a, nil
}

// QueueCommunication creates a Communication action carrying comm.
func (r *Repository) QueueCommunication(ctx context.Context, db *gorm.DB, comm model.Communication, table model.Table, id uuid.UUID, eventID *uuid.UUID) (*model.DomainAction, error) {
	now := r.clock.Now()
	a, err := model.NewDomainAction(model.ActionCommunication, comm, now, now.Add(model.DefaultExpiry), model.DefaultMaxAttemptCount)
	if err != nil {
		return nil, err
	}
	a.WithMainTable(table, id).WithChannel(comm.CommType.Channel())
	if eventID != nil {
		a.WithDomainEvent(*eventID)
	}
	if err := r.CreateDomainAction(ctx, db, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetDomainAction loads one action.
func (r *Repository) GetDomainAction(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.DomainAction, error) {
	var a model.DomainAction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindPendingActions returns the rows the dispatcher may run now, oldest
// schedule first. actionType narrows the search when non-nil.
func (r *Repository) FindPendingActions(ctx context.Context, actionType *model.ActionType, limit int) ([]model.DomainAction, error) {
	now := r.clock.Now()
	q := r.db.WithContext(ctx).
		Where("status IN ?", model.RetryableStatuses).
		Where("scheduled_at <= ? AND expires_at > ? AND blocked_until <= ?", now, now, now).
		Where("attempt_count < max_attempt_count")
	if actionType != nil {
		q = q.Where("domain_action_type = ?", *actionType)
	}
	var out []model.DomainAction
	err := q.Order("scheduled_at").Limit(limit).Find(&out).Error
	return out, err
}

// HasPendingAction reports whether a non-terminal action of type t exists
// for the given subject row.
func (r *Repository) HasPendingAction(ctx context.Context, db *gorm.DB, t model.ActionType, table model.Table, id uuid.UUID) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&model.DomainAction{}).
		Where("domain_action_type = ? AND main_table = ? AND main_table_id = ?", t, table, id).
		Where("status IN ?", model.RetryableStatuses).
		Count(&n).Error
	return n > 0, err
}

// CountActiveActions counts non-terminal, unexpired actions of type t.
func (r *Repository) CountActiveActions(ctx context.Context, db *gorm.DB, t model.ActionType) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&model.DomainAction{}).
		Where("domain_action_type = ? AND status IN ? AND expires_at > ?", t, model.RetryableStatuses, r.clock.Now()).
		Count(&n).Error
	return n, err
}

// ActionFilter narrows FindActions. Zero fields are ignored.
type ActionFilter struct {
	MainTable   *model.Table
	MainTableID *uuid.UUID
	ActionType  *model.ActionType
	Status      *model.ActionStatus
	Limit       int
}

// FindActions lists actions newest first.
func (r *Repository) FindActions(ctx context.Context, f ActionFilter) ([]model.DomainAction, error) {
	q := r.db.WithContext(ctx)
	if f.MainTable != nil {
		q = q.Where("main_table = ?", *f.MainTable)
	}
	if f.MainTableID != nil {
		q = q.Where("main_table_id = ?", *f.MainTableID)
	}
	if f.ActionType != nil {
		q = q.Where("domain_action_type = ?", *f.ActionType)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	var out []model.DomainAction
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// FindStuckActions returns non-terminal rows that have been due for longer
// than threshold without being picked up. They are reported, not healed.
func (r *Repository) FindStuckActions(ctx context.Context, threshold time.Duration) ([]model.DomainAction, error) {
	now := r.clock.Now()
	cutoff := now.Add(-threshold)
	var out []model.DomainAction
	err := r.db.WithContext(ctx).
		Where("status IN ?", model.RetryableStatuses).
		Where("scheduled_at <= ? AND blocked_until <= ? AND expires_at > ?", cutoff, cutoff, now).
		Where("attempt_count < max_attempt_count").
		Order("scheduled_at").
		Find(&out).Error
	return out, err
}

// SetBusy leases a for timeout so no other dispatcher selects it. It fails
// with ErrConcurrency when the row is already leased or no longer runnable.
func (r *Repository) SetBusy(ctx context.Context, a *model.DomainAction, timeout time.Duration) error {
	now := r.clock.Now()
	until := now.Add(timeout)
	res := r.db.WithContext(ctx).
		Model(&model.DomainAction{}).
		Where("id = ? AND blocked_until <= ? AND status IN ?", a.ID, now, model.RetryableStatuses).
		Updates(map[string]interface{}{
			"blocked_until":     until,
			"last_attempted_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: action %s is busy", ErrConcurrency, a.ID)
	}
	a.BlockedUntil = until
	a.LastAttemptedAt = &now
	return nil
}

// SetDone marks a as Success. Run it inside the action's transaction so the
// status commits together with the business writes.
func (r *Repository) SetDone(ctx context.Context, db *gorm.DB, a *model.DomainAction) error {
	now := r.clock.Now()
	res := db.WithContext(ctx).
		Model(&model.DomainAction{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"status":        model.ActionSuccess,
			"blocked_until": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set done %s: %w", a.ID, gorm.ErrRecordNotFound)
	}
	a.Status = model.ActionSuccess
	a.BlockedUntil = now
	return nil
}

// SetFailed records a failed attempt. The attempt count grows by one; the
// row becomes RetriesExceeded once it reaches max_attempt_count, otherwise
// Errored and blocked for the backoff delay.
func (r *Repository) SetFailed(ctx context.Context, db *gorm.DB, a *model.DomainAction, reason string) error {
	now := r.clock.Now()
	attempts := a.AttemptCount + 1
	status := model.ActionErrored
	blocked := now.Add(r.backoff.Delay(attempts))
	if attempts >= a.MaxAttemptCount {
		status = model.ActionRetriesExceeded
		blocked = now
	}
	reason = truncateReason(reason, maxFailureReasonLen)

	res := db.WithContext(ctx).
		Model(&model.DomainAction{}).
		Where("id = ? AND attempt_count = ?", a.ID, a.AttemptCount).
		Updates(map[string]interface{}{
			"attempt_count":       attempts,
			"status":              status,
			"blocked_until":       blocked,
			"last_failure_reason": reason,
			"last_attempted_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: attempt count of %s changed", ErrConcurrency, a.ID)
	}
	a.AttemptCount = attempts
	a.Status = status
	a.BlockedUntil = blocked
	a.LastFailureReason = &reason
	a.LastAttemptedAt = &now
	return nil
}

// CancelActions cancels every non-terminal action pointing at the subject
// row. actionType narrows the update when non-nil.
func (r *Repository) CancelActions(ctx context.Context, db *gorm.DB, table model.Table, id uuid.UUID, actionType *model.ActionType) (int64, error) {
	q := db.WithContext(ctx).
		Model(&model.DomainAction{}).
		Where("main_table = ? AND main_table_id = ? AND status IN ?", table, id, model.RetryableStatuses)
	if actionType != nil {
		q = q.Where("domain_action_type = ?", *actionType)
	}
	res := q.Update("status", model.ActionCancelled)
	return res.RowsAffected, res.Error
}

// truncateReason cuts s to at most n bytes without splitting a rune, and
// replaces any invalid bytes so the text column accepts it.
func truncateReason(s string, n int) string {
	if len(s) > n {
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

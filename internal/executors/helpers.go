package executors

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

var (
	ErrMissingSubject = errors.New("no subject row supplied in the action")
	ErrHoldNotEnded   = errors.New("hold must have ended to release inventory")
)

// subject returns the action's main table and id.
func subject(a *model.DomainAction) (model.Table, uuid.UUID, error) {
	if a.MainTable == nil || a.MainTableID == nil {
		return "", uuid.Nil, fmt.Errorf("%w: action %s", ErrMissingSubject, a.ID)
	}
	return *a.MainTable, *a.MainTableID, nil
}

// subjectIn is subject restricted to one table.
func subjectIn(a *model.DomainAction, want model.Table) (uuid.UUID, error) {
	table, id, err := subject(a)
	if err != nil {
		return uuid.Nil, err
	}
	if table != want {
		return uuid.Nil, fmt.Errorf("%w: %s for %s", repo.ErrTableNotSupported, table, a.ActionType)
	}
	return id, nil
}

// nextOccurrence is the next interval boundary after now.
func nextOccurrence(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

func strPtr(s string) *string { return &s }

package executors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// seedHold creates a hold of total instances of which sold are purchased.
func (f *fixture) seedHold(t *testing.T, endAt *time.Time, total, sold int) *model.Hold {
	t.Helper()
	ev, tt := f.seedEvent(t)
	h := &model.Hold{Name: "Press", EventID: ev.ID, TicketTypeID: tt.ID, HoldType: model.HoldComp, EndAt: endAt}
	f.create(t, h)
	buyer := f.seedUser(t, "Buyer", "buyer@example.com")
	for i := 0; i < total; i++ {
		if i < sold {
			f.seedTicket(t, tt, buyer, model.TicketPurchased, &h.ID)
		} else {
			f.seedTicket(t, tt, nil, model.TicketAvailable, &h.ID)
		}
	}
	return h
}

func (f *fixture) holdQuantity(t *testing.T, id uuid.UUID) (int64, int64) {
	t.Helper()
	total, remaining, err := f.repo.HoldQuantity(context.Background(), f.db, id)
	require.NoError(t, err)
	return total, remaining
}

func TestReleaseHold_EndedHoldIsReleased(t *testing.T) {
	f := newFixture(t)
	yesterday := testNow.Add(-24 * time.Hour)
	h := f.seedHold(t, &yesterday, 10, 5)

	total, remaining := f.holdQuantity(t, h.ID)
	require.Equal(t, int64(10), total)
	require.Equal(t, int64(5), remaining)

	a := f.action(t, model.ActionReleaseHoldInventory, nil, model.TableHolds.Ptr(), &h.ID)
	require.NoError(t, f.run(t, NewReleaseHoldInventoryExecutor(f.deps), a))

	total, remaining = f.holdQuantity(t, h.ID)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, int64(0), remaining)

	events, err := f.repo.FindDomainEvents(context.Background(), f.db, model.EventHoldAutomaticallyReleased, model.TableHolds, h.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].MainID)
	assert.Equal(t, h.ID, *events[0].MainID)
	assert.Equal(t, "Hold Press released", events[0].DisplayText)

	var freed int64
	require.NoError(t, f.db.Model(&model.TicketInstance{}).
		Where("hold_id IS NULL AND status = ?", model.TicketAvailable).Count(&freed).Error)
	assert.Equal(t, int64(5), freed)
	assert.Equal(t, model.ActionSuccess, f.reload(t, a).Status)
}

func TestReleaseHold_FutureEndFails(t *testing.T) {
	f := newFixture(t)
	tomorrow := testNow.Add(24 * time.Hour)
	h := f.seedHold(t, &tomorrow, 10, 5)

	a := f.action(t, model.ActionReleaseHoldInventory, nil, model.TableHolds.Ptr(), &h.ID)
	err := f.run(t, NewReleaseHoldInventoryExecutor(f.deps), a)
	assert.ErrorIs(t, err, ErrHoldNotEnded)

	total, remaining := f.holdQuantity(t, h.ID)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(5), remaining)

	got := f.reload(t, a)
	assert.Equal(t, model.ActionErrored, got.Status)
	assert.Equal(t, int64(1), got.AttemptCount)
	assert.True(t, got.BlockedUntil.After(testNow))
}

func TestReleaseHold_NothingRemainingEmitsNoEvent(t *testing.T) {
	f := newFixture(t)
	yesterday := testNow.Add(-24 * time.Hour)
	h := f.seedHold(t, &yesterday, 3, 3)

	a := f.action(t, model.ActionReleaseHoldInventory, nil, model.TableHolds.Ptr(), &h.ID)
	require.NoError(t, f.run(t, NewReleaseHoldInventoryExecutor(f.deps), a))

	events, err := f.repo.FindDomainEvents(context.Background(), f.db, model.EventHoldAutomaticallyReleased, model.TableHolds, h.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReleaseHold_UnsupportedTable(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	a := f.action(t, model.ActionReleaseHoldInventory, nil, model.TableEvents.Ptr(), &id)

	err := f.run(t, NewReleaseHoldInventoryExecutor(f.deps), a)
	assert.ErrorIs(t, err, repo.ErrTableNotSupported)
}

func TestReleaseHold_MissingSubject(t *testing.T) {
	f := newFixture(t)
	a := f.action(t, model.ActionReleaseHoldInventory, nil, nil, nil)

	err := f.run(t, NewReleaseHoldInventoryExecutor(f.deps), a)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

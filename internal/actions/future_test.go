package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/backoff"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
	"github.com/richardliu001/ticketing-actions/internal/testdb"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// countingStore records calls and can fail SetDone.
type countingStore struct {
	inner      Store
	doneCalls  int
	failCalls  int
	setDoneErr error
}

func (s *countingStore) SetDone(ctx context.Context, db *gorm.DB, a *model.DomainAction) error {
	s.doneCalls++
	if s.setDoneErr != nil {
		return s.setDoneErr
	}
	return s.inner.SetDone(ctx, db, a)
}

func (s *countingStore) SetFailed(ctx context.Context, db *gorm.DB, a *model.DomainAction, reason string) error {
	s.failCalls++
	return s.inner.SetFailed(ctx, db, a, reason)
}

type futureFixture struct {
	db    *gorm.DB
	repo  *repo.Repository
	store *countingStore
	book  *Bookkeeper
}

func newFutureFixture(t *testing.T) *futureFixture {
	t.Helper()
	db := testdb.New(t)
	clk := clock.NewMockClock(testNow)
	r := repo.NewRepository(db, clk, backoff.Default(), zap.NewNop().Sugar())
	store := &countingStore{inner: r}
	return &futureFixture{db: db, repo: r, store: store, book: NewBookkeeper(store, clk, zap.NewNop().Sugar())}
}

func (f *futureFixture) action(t *testing.T, maxAttempts int64) *model.DomainAction {
	t.Helper()
	a, err := model.NewDomainAction(model.ActionUpdateGenres, nil, testNow, testNow.Add(time.Hour), maxAttempts)
	require.NoError(t, err)
	require.NoError(t, f.repo.CreateDomainAction(context.Background(), f.db, a))
	return a
}

// writeMarker inserts a row inside the action's transaction so tests can
// check whether business writes survived.
func writeMarker(t *testing.T, conn *repo.Conn) uuid.UUID {
	t.Helper()
	g := model.Genre{Name: "marker-" + uuid.NewString()}
	require.NoError(t, conn.Tx().Create(&g).Error)
	return g.ID
}

func (f *futureFixture) markerExists(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Genre{}).Where("id = ?", id).Count(&n).Error)
	return n == 1
}

func TestFuture_OkCommits(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 3)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	marker := writeMarker(t, conn)

	require.NoError(t, f.book.Wrap(ctx, a, conn, Now(nil)).Await(ctx))

	got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSuccess, got.Status)
	assert.Equal(t, int64(0), got.AttemptCount)
	assert.True(t, f.markerExists(t, marker), "committed writes are visible")
	assert.Equal(t, 1, f.store.doneCalls)
	assert.Equal(t, 0, f.store.failCalls)
}

func TestFuture_ErrRollsBackAndRecordsAttempt(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 3)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	marker := writeMarker(t, conn)

	boom := errors.New("hold must have ended")
	err = f.book.Wrap(ctx, a, conn, Now(boom)).Await(ctx)
	assert.ErrorIs(t, err, boom)

	got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionErrored, got.Status)
	assert.Equal(t, int64(1), got.AttemptCount)
	assert.True(t, got.BlockedUntil.After(testNow))
	require.NotNil(t, got.LastFailureReason)
	assert.Equal(t, boom.Error(), *got.LastFailureReason)
	assert.False(t, f.markerExists(t, marker), "rolled back writes are discarded")
}

func TestFuture_ErrOnLastAttemptExceedsRetries(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 1)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	assert.Error(t, f.book.Wrap(ctx, a, conn, Now(errors.New("nope"))).Await(ctx))

	got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionRetriesExceeded, got.Status)
	assert.Equal(t, int64(1), got.AttemptCount)
}

func TestFuture_PollPendingHasNoSideEffects(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 3)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	inner := make(chan error, 1)
	fut := f.book.Wrap(ctx, a, conn, inner)

	ready, err := fut.Poll()
	assert.False(t, ready)
	assert.NoError(t, err)
	assert.False(t, conn.Finished())
	assert.Zero(t, f.store.doneCalls+f.store.failCalls)

	inner <- nil
	ready, err = fut.Poll()
	assert.True(t, ready)
	assert.NoError(t, err)
	assert.True(t, conn.Finished())

	// resolved futures keep their result and do no more work
	ready, err = fut.Poll()
	assert.True(t, ready)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.store.doneCalls)
}

func TestFuture_SetDoneFailurePropagates(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 3)
	f.store.setDoneErr = errors.New("connection reset")

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	marker := writeMarker(t, conn)

	err = f.book.Wrap(ctx, a, conn, Now(nil)).Await(ctx)
	assert.ErrorIs(t, err, f.store.setDoneErr)
	assert.True(t, conn.Finished())
	assert.False(t, f.markerExists(t, marker))

	got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionPending, got.Status, "row stays retryable")
	assert.Equal(t, 0, f.store.failCalls)
}

func TestFuture_AwaitContextCancelled(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	a := f.action(t, 3)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	marker := writeMarker(t, conn)

	waitCtx, cancel := context.WithCancel(ctx)
	cancel()
	err = f.book.Wrap(ctx, a, conn, make(chan error)).Await(waitCtx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, conn.Finished())
	assert.Zero(t, f.store.failCalls)
	assert.False(t, f.markerExists(t, marker))

	got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AttemptCount)
}

func TestFuture_AwaitPrefersFinishedRunOverEndedContext(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	waitCtx, cancel := context.WithCancel(ctx)
	cancel()

	// select alone would pick either case at random
	for i := 0; i < 20; i++ {
		a := f.action(t, 3)
		conn, err := f.repo.Begin(ctx)
		require.NoError(t, err)
		marker := writeMarker(t, conn)

		require.NoError(t, f.book.Wrap(ctx, a, conn, Now(nil)).Await(waitCtx))
		assert.True(t, f.markerExists(t, marker))

		got, err := f.repo.GetDomainAction(ctx, f.db, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ActionSuccess, got.Status)
	}
	assert.Equal(t, 20, f.store.doneCalls)
}

func TestBookkeeperRun_TimesTheJob(t *testing.T) {
	f := newFutureFixture(t)
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	book := NewBookkeeper(f.store, clock.NewMockClock(testNow), zap.New(core).Sugar())
	a := f.action(t, 3)

	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, book.Run(ctx, a, conn, func() error {
		time.Sleep(30 * time.Millisecond)
		return nil
	}).Await(ctx))

	entries := logs.FilterMessage("domain action succeeded").All()
	require.Len(t, entries, 1)
	ms, ok := entries[0].ContextMap()["milliseconds_taken"].(int64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, ms, int64(30))
}

func TestAsync_DeliversResult(t *testing.T) {
	boom := errors.New("boom")
	assert.ErrorIs(t, <-Async(func() error { return boom }), boom)
	assert.NoError(t, <-Now(nil))
}

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/backoff"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/testdb"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB, *clock.MockClock) {
	t.Helper()
	db := testdb.New(t)
	clk := clock.NewMockClock(testNow)
	return NewRepository(db, clk, backoff.Default(), zap.NewNop().Sugar()), db, clk
}

func mustCreateAction(t *testing.T, r *Repository, db *gorm.DB, typ model.ActionType, scheduledAt time.Time, maxAttempts int64) *model.DomainAction {
	t.Helper()
	a, err := model.NewDomainAction(typ, nil, scheduledAt, scheduledAt.Add(model.DefaultExpiry), maxAttempts)
	require.NoError(t, err)
	require.NoError(t, r.CreateDomainAction(context.Background(), db, a))
	return a
}

package executors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/model"
)

func TestBuildRouter_RoutesEveryActionType(t *testing.T) {
	f := newFixture(t)
	r, err := BuildRouter(f.cfg, f.deps)
	require.NoError(t, err)

	for _, typ := range model.AllActionTypes() {
		e, ok := r.ExecutorFor(typ)
		assert.True(t, ok, "no executor for %s", typ)
		assert.NotNil(t, e)
	}
	_, ok := r.ExecutorFor("Unrouted")
	assert.False(t, ok)

	err = r.AddExecutor(model.ActionCommunication, NewSendCommunicationExecutor(f.deps, false))
	assert.ErrorIs(t, err, actions.ErrRouterFrozen)
}

func TestNewExecutor_UnknownTypeFails(t *testing.T) {
	f := newFixture(t)
	_, err := newExecutor("Unrouted", f.cfg, f.deps)
	assert.ErrorIs(t, err, actions.ErrNoExecutor)
}

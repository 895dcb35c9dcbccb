package comms

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

func TestRedisQueue_Send(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewRedisQueue(rdb, "comms")
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	id := uuid.New()
	comm := model.Communication{CommType: model.CommPush, Title: "Doors open", Destinations: []string{"tok-1"}}
	payload, err := json.Marshal(Envelope{DomainActionID: id, QueuedAt: fixed, Communication: comm})
	require.NoError(t, err)

	mock.ExpectLPush("comms:push", payload).SetVal(1)
	require.NoError(t, q.Send(context.Background(), id, comm))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQueue_SendError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewRedisQueue(rdb, "comms")
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	id := uuid.New()
	comm := model.Communication{CommType: model.CommEmail, Title: "Receipt", Destinations: []string{"a@example.com"}}
	payload, err := json.Marshal(Envelope{DomainActionID: id, QueuedAt: fixed, Communication: comm})
	require.NoError(t, err)

	mock.ExpectLPush("comms:email", payload).SetErr(errors.New("READONLY"))
	err = q.Send(context.Background(), id, comm)
	assert.ErrorContains(t, err, "READONLY")
}

func TestRedisQueue_RejectsEmptyDestinations(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewRedisQueue(rdb, "comms")
	assert.Error(t, q.Send(context.Background(), uuid.New(), model.Communication{CommType: model.CommSms}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Package comms hands communication envelopes to the transport workers
// (mail, SMS, push, webhooks) through per-channel Redis lists.
package comms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

// Sender delivers a communication to its transport.
type Sender interface {
	Send(ctx context.Context, actionID uuid.UUID, comm model.Communication) error
}

// Envelope is the message the transport workers pop.
type Envelope struct {
	DomainActionID uuid.UUID           `json:"domain_action_id"`
	QueuedAt       time.Time           `json:"queued_at"`
	Communication  model.Communication `json:"communication"`
}

// RedisQueue pushes envelopes onto "<prefix>:<comm type>" lists.
type RedisQueue struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisQueue(rdb redis.Cmdable, prefix string) *RedisQueue {
	return &RedisQueue{rdb: rdb, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

// Key returns the list a communication type is queued on.
func (q *RedisQueue) Key(t model.CommunicationType) string {
	return q.prefix + ":" + strings.ToLower(string(t))
}

func (q *RedisQueue) Send(ctx context.Context, actionID uuid.UUID, comm model.Communication) error {
	if len(comm.Destinations) == 0 {
		return fmt.Errorf("communication %s has no destinations", actionID)
	}
	b, err := json.Marshal(Envelope{DomainActionID: actionID, QueuedAt: q.now(), Communication: comm})
	if err != nil {
		return fmt.Errorf("marshal communication %s: %w", actionID, err)
	}
	if err := q.rdb.LPush(ctx, q.Key(comm.CommType), b).Err(); err != nil {
		return fmt.Errorf("queue communication %s: %w", actionID, err)
	}
	return nil
}

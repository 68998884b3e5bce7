package redisstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

// Queue implements the consumer-group work queue on Redis Streams. Delivery
// is at-least-once: a claimed message stays on the group's pending list
// until XACK, and a crashed consumer's messages are recovered through
// ReclaimStale.
type Queue struct {
	client *redis.Client
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Enqueue(ctx context.Context, stream, jobID string, payload []byte) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"job_id":  jobID,
			"payload": payload,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue on %s: %w", stream, err)
	}
	return id, nil
}

func (q *Queue) EnsureGroup(ctx context.Context, stream, group string) error {
	err := q.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, stream, err)
	}
	return nil
}

func (q *Queue) Claim(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]port.Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		// Block timeout with nothing to deliver.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim from %s: %w", stream, err)
	}

	var messages []port.Message
	for _, s := range streams {
		for _, m := range s.Messages {
			messages = append(messages, toMessage(m, 1))
		}
	}
	return messages, nil
}

func (q *Queue) Ack(ctx context.Context, stream, group, messageID string) error {
	if err := q.client.XAck(ctx, stream, group, messageID).Err(); err != nil {
		return fmt.Errorf("ack %s on %s: %w", messageID, stream, err)
	}
	return nil
}

func (q *Queue) ReclaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]port.Message, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("pending list for %s: %w", stream, err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	deliveries := make(map[string]int64, len(pending))
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		deliveries[p.ID] = p.RetryCount
		ids = append(ids, p.ID)
	}

	claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("claim stale from %s: %w", stream, err)
	}

	messages := make([]port.Message, 0, len(claimed))
	for _, m := range claimed {
		// XCLAIM bumps the delivery counter once more.
		messages = append(messages, toMessage(m, deliveries[m.ID]+1))
	}
	return messages, nil
}

func (q *Queue) DeadLetter(ctx context.Context, stream string, msg port.Message) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream + ":dead",
		Values: map[string]any{
			"job_id":     msg.JobID,
			"payload":    msg.Payload,
			"origin_id":  msg.ID,
			"deliveries": msg.DeliveryCount,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("dead-letter %s from %s: %w", msg.ID, stream, err)
	}
	return nil
}

func toMessage(m redis.XMessage, deliveryCount int64) port.Message {
	msg := port.Message{ID: m.ID, DeliveryCount: deliveryCount}
	if v, ok := m.Values["job_id"].(string); ok {
		msg.JobID = v
	}
	if v, ok := m.Values["payload"].(string); ok {
		msg.Payload = []byte(v)
	}
	return msg
}

var _ port.WorkQueue = (*Queue)(nil)

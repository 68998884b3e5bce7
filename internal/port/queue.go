package port

import (
	"context"
	"time"
)

// Stream names used for hand-off between pipeline stages.
const (
	StreamVideoProcessing = "queue:video_processing"
	StreamAIProcessing    = "queue:ai_processing"
)

// Message is a work item claimed from a stream. ID is the broker-assigned
// position; DeliveryCount is per consumer group and grows on every
// redelivery, which is what poison detection keys off.
type Message struct {
	ID            string
	JobID         string
	Payload       []byte
	DeliveryCount int64
}

// WorkQueue is an at-least-once, consumer-group work queue over named
// streams. A claimed message stays pending for its consumer until Ack;
// downstream processing must be idempotent by job id.
type WorkQueue interface {
	// Enqueue appends a payload and returns the broker-assigned message id.
	// It never blocks on consumers.
	Enqueue(ctx context.Context, stream, jobID string, payload []byte) (string, error)
	// EnsureGroup creates the consumer group (and stream) if missing.
	// Creating a group that already exists is a no-op.
	EnsureGroup(ctx context.Context, stream, group string) error
	// Claim returns up to count messages newly delivered to the group,
	// blocking up to block if none are available. An empty result after
	// the block timeout is not an error.
	Claim(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)
	// Ack marks a message processed and removes it from the group's
	// pending list. Acknowledging twice is a no-op.
	Ack(ctx context.Context, stream, group, messageID string) error
	// ReclaimStale transfers ownership of messages that have been pending
	// longer than minIdle to consumer, returning them with their real
	// delivery counts.
	ReclaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error)
	// DeadLetter parks a poison message on the stream's dead-letter
	// stream. The caller still acks the original.
	DeadLetter(ctx context.Context, stream string, msg Message) error
}

package port

import "context"

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// Usage reports per-window request counts for a user. Only the minute
// window gates admission; the hour and day counts are informational.
type Usage struct {
	RequestsLastMinute int64
	RequestsLastHour   int64
	RequestsLastDay    int64
}

type RateLimiter interface {
	// Check decides whether one more request from the user is admitted.
	// When the counting store is unreachable it fails open and allows.
	Check(ctx context.Context, userID, tier string) Decision
	Usage(ctx context.Context, userID string) (Usage, error)
	// BatchLimit returns the tier's batch-size ceiling.
	BatchLimit(tier string) int
}

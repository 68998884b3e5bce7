package redisrate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits_TierTable(t *testing.T) {
	assert.Equal(t, 10, Limits("free").RequestsPerMinute)
	assert.Equal(t, 30, Limits("basic").RequestsPerMinute)
	assert.Equal(t, 100, Limits("pro").RequestsPerMinute)
	assert.Equal(t, 500, Limits("enterprise").RequestsPerMinute)
	assert.Equal(t, 100000, Limits("enterprise").RequestsPerDay)
}

func TestLimits_UnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, Limits("free"), Limits("platinum"))
	assert.Equal(t, Limits("free"), Limits(""))
}

func TestLimiter_BatchLimit(t *testing.T) {
	limiter := NewLimiter(nil)
	assert.Equal(t, 5, limiter.BatchLimit("free"))
	assert.Equal(t, 100, limiter.BatchLimit("enterprise"))
}

func TestLimiter_Check_FailsOpenWhenStoreUnreachable(t *testing.T) {
	// Nothing listens here; every command fails fast. Admission must
	// degrade to allow-all rather than reject all traffic.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewLimiter(client)
	decision := limiter.Check(context.Background(), "user-1", "free")

	assert.True(t, decision.Allowed)
	assert.Equal(t, 10, decision.Limit)
}

// Tests below need a real Redis; set TEST_REDIS_ADDR to run them.

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLimiter_Check_DeniesOverLimit(t *testing.T) {
	client := testClient(t)
	limiter := NewLimiter(client)
	userID := "user-" + uuid.NewString()
	ctx := context.Background()

	limit := Limits("free").RequestsPerMinute
	for i := 1; i <= limit; i++ {
		decision := limiter.Check(ctx, userID, "free")
		assert.True(t, decision.Allowed, "request %d of %d should be admitted", i, limit)
		assert.Equal(t, limit-i, decision.Remaining)
	}

	decision := limiter.Check(ctx, userID, "free")
	assert.False(t, decision.Allowed, "request %d should be denied", limit+1)
	assert.Equal(t, 0, decision.Remaining)
}

func TestLimiter_Check_ExpiredEntriesArePruned(t *testing.T) {
	client := testClient(t)
	limiter := NewLimiter(client)
	userID := "user-" + uuid.NewString()
	ctx := context.Background()

	// Fill the minute window with entries that are already outside it.
	stale := time.Now().Add(-2 * time.Minute).Unix()
	key := windowKey(userID, "minute")
	for i := 0; i < 20; i++ {
		require.NoError(t, client.ZAdd(ctx, key, redis.Z{Score: float64(stale), Member: uuid.NewString()}).Err())
	}

	decision := limiter.Check(ctx, userID, "free")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 9, decision.Remaining)
}

func TestLimiter_Check_OnlyMinuteWindowGates(t *testing.T) {
	// The hour and day windows are recorded but deliberately never
	// enforced; only the minute window decides admission.
	client := testClient(t)
	limiter := NewLimiter(client)
	userID := "user-" + uuid.NewString()
	ctx := context.Background()

	now := time.Now().Unix()
	hourKey := windowKey(userID, "hour")
	for i := 0; i < Limits("free").RequestsPerHour+50; i++ {
		require.NoError(t, client.ZAdd(ctx, hourKey, redis.Z{Score: float64(now - 120), Member: uuid.NewString()}).Err())
	}

	decision := limiter.Check(ctx, userID, "free")
	assert.True(t, decision.Allowed, "hour window must not gate admission")
}

func TestLimiter_Usage_CountsPerWindow(t *testing.T) {
	client := testClient(t)
	limiter := NewLimiter(client)
	userID := "user-" + uuid.NewString()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Check(ctx, userID, "free")
	}

	usage, err := limiter.Usage(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), usage.RequestsLastMinute)
	assert.Equal(t, int64(3), usage.RequestsLastHour)
	assert.Equal(t, int64(3), usage.RequestsLastDay)
}

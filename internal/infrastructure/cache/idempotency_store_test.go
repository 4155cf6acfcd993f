package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server; set TEST_REDIS_URL=redis://localhost:6379/15 to enable.
func TestIdempotencyStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	rdb, err := Connect(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	store := NewIdempotencyStore(rdb)
	userID := uuid.New()
	key := "pay-" + uuid.NewString()

	missing, err := store.GetByKey(ctx, key, userID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Create(ctx, &entity.IdempotencyKey{
		Key:          key,
		UserID:       userID,
		Endpoint:     "POST /api/v1/custom-orders/:id/payments",
		ResponseCode: 201,
		ResponseBody: `{"success":true}`,
		ExpiresAt:    time.Now().Add(time.Minute),
	}))

	got, err := store.GetByKey(ctx, key, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.ResponseCode)
	assert.Equal(t, `{"success":true}`, got.ResponseBody)

	other, err := store.GetByKey(ctx, key, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRedisKey(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "idempotency:11111111-1111-1111-1111-111111111111:abc", redisKey("abc", userID))
}

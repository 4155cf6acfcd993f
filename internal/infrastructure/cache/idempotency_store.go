// Package cache holds Redis backed stores.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
)

const idempotencyPrefix = "idempotency:"

// Connect parses a redis:// URL and verifies the server answers
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

type idempotencyStore struct {
	rdb *redis.Client
}

// NewIdempotencyStore returns an IdempotencyRepository kept in Redis.
// Keys expire on their own so DeleteExpired has nothing to do.
func NewIdempotencyStore(rdb *redis.Client) domainRepo.IdempotencyRepository {
	return &idempotencyStore{rdb: rdb}
}

func redisKey(key string, userID uuid.UUID) string {
	return idempotencyPrefix + userID.String() + ":" + key
}

func (s *idempotencyStore) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	val, err := s.rdb.Get(ctx, redisKey(key, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	var ikey entity.IdempotencyKey
	if err := json.Unmarshal([]byte(val), &ikey); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency key: %w", err)
	}
	return &ikey, nil
}

func (s *idempotencyStore) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}

	ttl := time.Until(ikey.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(ikey)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency key: %w", err)
	}

	return s.rdb.Set(ctx, redisKey(ikey.Key, ikey.UserID), data, ttl).Err()
}

func (s *idempotencyStore) DeleteExpired(ctx context.Context) error {
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/proportfolio/gallery/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "portfolio:"

type redisStorageRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStorageRepository creates a key-value store backed by Redis.
// A zero ttl keeps values until they are deleted.
func NewRedisStorageRepository(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *redisStorageRepository {
	return &redisStorageRepository{
		client: client,
		prefix: defaultRedisPrefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves the value stored under key.
// Returns models.ErrNotFound if there is no such key.
func (r *redisStorageRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", models.ErrNotFound
		}
		r.logger.Error("failed to get redis value", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (r *redisStorageRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Error("failed to set redis value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *redisStorageRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Error("failed to delete redis value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

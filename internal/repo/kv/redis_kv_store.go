package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fanhub-app/fanhub/internal/infra/logging"
)

// RedisStoreConfig holds configuration for the Redis key-value store.
type RedisStoreConfig struct {
	// Addr is the host:port of the Redis server
	Addr string `env:"ADDR" default:"localhost:6379"`

	// Password is the Redis AUTH password, empty for none
	Password string `env:"PASSWORD" default:""`

	// DB is the Redis database number
	DB int `env:"DB" default:"0"`

	// KeyPrefix is prepended to every key to namespace this application
	KeyPrefix string `env:"KEY_PREFIX" default:"fanhub:"`
}

// RedisStore implements Store backed by a Redis server. Values are stored
// without TTL; sessions persist until logout removes them.
type RedisStore struct {
	rdb    *redis.Client
	log    logging.Logger
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new RedisStore and verifies connectivity.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	log := logging.GetLogger("repo.kv.redis_kv_store").With(
		logging.Group("redis", "addr", cfg.Addr, "db", cfg.DB),
	)

	//nolint:exhaustruct
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		rdb:    rdb,
		log:    log,
		prefix: cfg.KeyPrefix,
	}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		log:    logging.GetLogger("repo.kv.redis_kv_store"),
		prefix: prefix,
	}
}

// Get implements Store.Get using Redis.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("get value: %w", err)
	}

	return value, true, nil
}

// Set implements Store.Set using Redis.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set value: %w", err)
	}

	return nil
}

// Delete implements Store.Delete using Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete value: %w", err)
	}

	return nil
}

// Close implements Store.Close by closing the Redis client.
func (s *RedisStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}

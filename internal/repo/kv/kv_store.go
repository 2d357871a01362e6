package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned when the configured backend name is not recognized.
var ErrUnknownBackend = errors.New("unknown kv backend")

// Store defines the interface for durable key-value storage. The session
// manager treats it as two independent slots; a missing key is not an error.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns the value and true if found, or empty string and false if not found.
	// Returns an error if the lookup itself fails.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreFactory is a function that creates a new Store instance.
// Returns an error if initialization fails.
type StoreFactory func() (Store, error)

// Config selects and configures a storage backend.
type Config struct {
	// Backend names the storage backend ("sqlite", "redis" or "memory")
	Backend string `env:"BACKEND" default:"sqlite"`

	SQLite SQLiteStoreConfig `envPrefix:"SQLITE_"`
	Redis  RedisStoreConfig  `envPrefix:"REDIS_"`
}

// Factory creates a StoreFactory for the configured backend.
func Factory(cfg Config) StoreFactory {
	return func() (Store, error) {
		switch cfg.Backend {
		case "sqlite":
			return NewSQLiteStore(cfg.SQLite)
		case "redis":
			return NewRedisStore(cfg.Redis)
		case "memory":
			return NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
		}
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("storage: key not found")
	// ErrValueTooLarge is returned by Put when a value exceeds the store's ceiling.
	ErrValueTooLarge = errors.New("storage: value exceeds size ceiling")
)

// Store is the key/value persistence layer the sitemap pages are written to.
// Writes are never cached by the store; readers always see the last Put.
type Store interface {
	Initialize() error
	Close() error

	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Options are shared by every store implementation.
type Options struct {
	// MaxValueBytes rejects larger values with ErrValueTooLarge. Zero disables the check.
	MaxValueBytes int
}

func (o Options) check(key string, value []byte) error {
	if o.MaxValueBytes > 0 && len(value) > o.MaxValueBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrValueTooLarge, key, len(value), o.MaxValueBytes)
	}
	return nil
}

// Config selects and configures a Store.
type Config struct {
	Driver        string // postgres, sqlite, redis or memory
	DSN           string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	MaxValueBytes int
}

// Open builds the configured store and runs its Initialize step.
func Open(cfg Config) (Store, error) {
	opts := Options{MaxValueBytes: cfg.MaxValueBytes}

	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "postgres":
		store, err = NewPostgresStore(cfg.DSN, opts)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "sitemaps.db"
		}
		store, err = NewSQLiteStore(dsn, opts)
	case "redis":
		store, err = NewRedisStore(RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, opts)
	case "memory":
		store = NewMemoryStore(opts)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize %s store: %w", cfg.Driver, err)
	}
	return store, nil
}

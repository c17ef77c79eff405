// Package storage is the durable key-value port behind every piece of local
// DutyFlow state: saved palettes, the restored session and the theme choice.
// Business logic never touches the filesystem or redis directly; it receives
// a Port.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Read (and tolerated by Clear) when the key has
// never been written.
var ErrNotFound = errors.New("storage: key not found")

// Port reads, writes and clears whole values by key.
type Port interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Dir         string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// Open builds the configured backend. Redis connectivity is verified here so
// a misconfigured address fails at startup instead of on first save.
func Open(ctx context.Context, opts Options) (Port, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFile(opts.Dir)
	case BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return ConnectRedis(ctx, RedisConfig{
			Addr:   opts.RedisAddr,
			DB:     opts.RedisDB,
			Prefix: opts.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
}

func validKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("storage: key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

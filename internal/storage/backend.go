// Package storage provides the document store backing user pools: one JSON
// document per pool, addressed by an opaque key. Backends: file (default),
// postgres, redis.
package storage

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("storage: unknown backend")

// Backend stores JSON documents by key. Put must be durable before it
// returns; readers never observe a torn write.
type Backend interface {
	// Get unmarshals the document at key into v. ok is false when absent.
	Get(ctx context.Context, key string, v any) (ok bool, err error)
	// Put marshals v and durably writes it at key.
	Put(ctx context.Context, key string, v any) error
	// Delete removes the document at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all document keys.
	Keys(ctx context.Context) ([]string, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Backend is "file", "postgres", or "redis".
	Backend string
	// DataDir is the directory for the file backend.
	DataDir string
	// DatabaseURL is the Postgres DSN for the postgres backend.
	DatabaseURL string
	// RedisURL is the redis connection URL for the redis backend.
	RedisURL string
}

// Open returns the configured backend. The postgres backend runs its schema
// migration before returning.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "file":
		return OpenFile(opts.DataDir)
	case "postgres":
		return OpenPostgres(ctx, opts.DatabaseURL)
	case "redis":
		return OpenRedis(ctx, opts.RedisURL)
	default:
		return nil, ErrUnknownBackend
	}
}

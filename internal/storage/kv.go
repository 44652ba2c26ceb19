// Package storage provides the process-wide key-value stores the transcript
// is persisted in. Every driver stores opaque byte values under string keys.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the key has never been written.
var ErrNotFound = errors.New("key not found")

// ErrInvalidValue is returned by stores that can only hold JSON values.
var ErrInvalidValue = errors.New("value is not valid json")

// KV is the minimal read/write contract the transcript store depends on.
type KV interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}

// Backend is a KV with a connection lifecycle, as opened from configuration.
type Backend interface {
	KV
	Ping(ctx context.Context) error
	Close() error
}

// Driver names accepted by configuration.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Config selects and addresses a KV backend.
type Config struct {
	Backend     string   `json:"backend"`
	DSN         string   `json:"dsn"`
	RedisURL    string   `json:"redis_url"`
	RedisPrefix string   `json:"redis_prefix"`
	S3          S3Config `json:"s3"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured KV. The returned closer releases the backend
// connection and is never nil on success.
func Open(ctx context.Context, c Config) (KV, io.Closer, error) {
	switch c.Backend {
	case "", BackendSQLite:
		db, err := InitDatabase(ctx, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteKV(db), db, nil
	case BackendRedis:
		kv, err := DialRedis(ctx, c.RedisURL, c.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	case BackendS3:
		if c.S3.Bucket == "" {
			return nil, nil, errors.New("s3 backend requires a bucket")
		}
		client, err := NewS3Client(ctx, c.S3)
		if err != nil {
			return nil, nil, err
		}
		return NewS3KV(client, c.S3.Bucket, c.S3.Prefix), nopCloser{}, nil
	case BackendMemory:
		return NewMemoryKV(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
}

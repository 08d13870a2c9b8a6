package store

import (
	"context"
	"fmt"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend string

	// Table is the DynamoDB table or the Postgres table name.
	Table string

	RedisURL       string
	RedisKeyPrefix string
	RedisRetention time.Duration

	DatabaseURL string
	AWSRegion   string
}

// Open connects the configured backend. The returned close function releases its
// connections and is never nil.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), func() {}, nil
	case BackendRedis:
		r, err := NewRedis(ctx, opts.RedisURL, opts.RedisKeyPrefix, opts.RedisRetention)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case BackendDynamoDB:
		d, err := NewDynamoDB(ctx, opts.AWSRegion, opts.Table)
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	case BackendPostgres:
		p, pool, err := NewPostgres(ctx, opts.DatabaseURL, opts.Table)
		if err != nil {
			return nil, nil, err
		}
		return p, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store backend: %q", opts.Backend)
	}
}

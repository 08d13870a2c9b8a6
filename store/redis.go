package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
)

var _ Store = (*Redis)(nil)

// stringGetter is satisfied by both the client and a WATCH transaction.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis stores each item as a JSON string under "<prefix><pk>|<sk>".
// Items carrying an expires_at attribute are given a Redis TTL of
// expires_at + retention so expired-but-refreshable sessions survive.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
	retention time.Duration
	now       func() time.Time
}

// NewRedis connects to the Redis server described by url and verifies connectivity.
func NewRedis(ctx context.Context, url, keyPrefix string, retention time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultRedisDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultRedisReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultRedisWriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisWithClient(client, keyPrefix, retention), nil
}

// NewRedisWithClient wraps a pre-configured client. Useful with miniredis.
func NewRedisWithClient(client redis.UniversalClient, keyPrefix string, retention time.Duration) *Redis {
	return &Redis{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
		now:       time.Now,
	}
}

// Close closes the Redis client connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) redisKey(key Key) string {
	return r.keyPrefix + key.PK + "|" + key.SK
}

// ttl returns 0 (no expiry) for items without expires_at.
func (r *Redis) ttl(attrs Attributes) time.Duration {
	exp, ok := attrs.expiresAt()
	if !ok {
		return 0
	}
	ttl := exp.Add(r.retention).Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (r *Redis) Get(ctx context.Context, key Key, out any) error {
	if err := key.validate(); err != nil {
		return err
	}
	attrs, err := r.get(ctx, r.client, key)
	if err != nil {
		return err
	}
	return decode(attrs, out)
}

func (r *Redis) get(ctx context.Context, c stringGetter, key Key) (Attributes, error) {
	data, err := c.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	attrs := Attributes{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return attrs, nil
}

func (r *Redis) Put(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	attrs, err := toAttributes(key, item)
	if err != nil {
		return err
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.redisKey(key), data, r.ttl(attrs)).Err(); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (r *Redis) PutIfAbsent(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	attrs, err := toAttributes(key, item)
	if err != nil {
		return err
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	// SetNX gives the atomic create-if-absent
	created, err := r.client.SetNX(ctx, r.redisKey(key), data, r.ttl(attrs)).Result()
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	if !created {
		return ErrConditionFailed
	}
	return nil
}

func (r *Redis) Update(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.validate(); err != nil {
		return err
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	rk := r.redisKey(key)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		attrs, err := r.get(ctx, tx, key)
		if err != nil {
			return err
		}
		for k, v := range patch {
			if k == AttrPK || k == AttrSK {
				continue
			}
			attrs[k] = v
		}
		data, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, r.ttl(attrs))
			return nil
		})
		return err
	}, rk)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

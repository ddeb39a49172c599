package kv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 2 * time.Second

// Redis implements Store on a shared go-redis client.
type Redis struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects and pings; a store that cannot be reached at
// startup is a configuration error, not something to degrade around.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client, e.g. the one shared
// with the cuckoo filter.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Client exposes the underlying connection for collaborators that
// need commands outside the Store contract (the membership filter).
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return mapErr(r.client.Set(ctx, key, value, ttl).Err())
}

func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return mapErr(r.client.HSet(ctx, key, m).Err())
}

func (r *Redis) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", mapErr(err)
	}
	return val, nil
}

func (r *Redis) ListPush(ctx context.Context, key string, value []byte) error {
	return mapErr(r.client.LPush(ctx, key, value).Err())
}

func (r *Redis) ListTrim(ctx context.Context, key string, start, stop int64) error {
	return mapErr(r.client.LTrim(ctx, key, start, stop).Err())
}

func (r *Redis) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (r *Redis) ListRemove(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	n, err := r.client.LRem(ctx, key, count, value).Result()
	return n, mapErr(err)
}

func (r *Redis) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	return n, mapErr(err)
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	return n > 0, mapErr(err)
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return mapErr(r.client.Expire(ctx, key, ttl).Err())
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, mapErr(err)
	}
	// go-redis reports missing keys as -2 and no-expiry keys as -1.
	if d == -2 {
		return 0, false, nil
	}
	if d == -1 {
		return 0, true, nil
	}
	return d, true, nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return mapErr(r.client.Del(ctx, keys...).Err())
}

func (r *Redis) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	keys, next, err := r.client.Scan(ctx, cursor, match, count).Result()
	if err != nil {
		return nil, 0, mapErr(err)
	}
	return keys, next, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return mapErr(r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

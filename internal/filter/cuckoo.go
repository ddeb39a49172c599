package filter

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultCapacity = 1 << 16

// Cuckoo is a named server-side cuckoo filter (RedisBloom CF.*
// commands). CF.DEL removes a single fingerprint occurrence, so
// deletion is safe for previously added items.
type Cuckoo struct {
	client *redis.Client
	name   string
}

// NewCuckoo reserves the filter if it does not exist yet. Reserving
// an existing filter is treated as success.
func NewCuckoo(ctx context.Context, client *redis.Client, name string) (*Cuckoo, error) {
	err := client.CFReserve(ctx, name, defaultCapacity).Err()
	if err != nil && !strings.Contains(err.Error(), "exists") {
		return nil, err
	}
	return &Cuckoo{client: client, name: name}, nil
}

func (c *Cuckoo) Add(ctx context.Context, item string) error {
	return c.client.CFAdd(ctx, c.name, item).Err()
}

func (c *Cuckoo) Exists(ctx context.Context, item string) (bool, error) {
	return c.client.CFExists(ctx, c.name, item).Result()
}

func (c *Cuckoo) Remove(ctx context.Context, item string) error {
	return c.client.CFDel(ctx, c.name, item).Err()
}

// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisHashKey = "seekmark:timestamps"

const redisOpTimeout = 2 * time.Second

// RedisOptions holds connection settings for RedisBackend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisBackend stores records as JSON fields of one redis hash, so a
// store shared between devices stays a single inspectable key.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to redis and verifies the connection.
func NewRedisBackend(opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, redisOpTimeout)
}

func (b *RedisBackend) Put(ctx context.Context, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.client.HSet(ctx, redisHashKey, rec.VideoID, buf).Err()
}

func (b *RedisBackend) Get(ctx context.Context, videoID string) (*Record, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	val, err := b.client.HGet(ctx, redisHashKey, videoID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (b *RedisBackend) Delete(ctx context.Context, videoID string) (bool, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	n, err := b.client.HDel(ctx, redisHashKey, videoID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBackend) List(ctx context.Context) ([]Record, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	all, err := b.client.HGetAll(ctx, redisHashKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(all))
	for _, raw := range all {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (b *RedisBackend) Count(ctx context.Context) (int, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	n, err := b.client.HLen(ctx, redisHashKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.client.Del(ctx, redisHashKey).Err()
}

func (b *RedisBackend) Close() error { return b.client.Close() }

var _ Backend = (*RedisBackend)(nil)

package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the Redis client. Zero values keep the go-redis defaults.
type RedisOptions struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisClient parses a redis:// or rediss:// URL, applies opts and
// verifies connectivity within connectTimeout.
func NewRedisClient(ctx context.Context, url string, opts RedisOptions) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		opt.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		opt.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		opt.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}
	return client, nil
}

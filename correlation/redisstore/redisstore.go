// Package redisstore keeps correlation records in Redis, letting several callback hosts
// behind a load balancer resolve a flow started on any of them.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "oauthflow"

var (
	_ correlation.Store = (*RedisStore)(nil)

	ErrBackend = errors.New("correlation backend unavailable")
)

// RedisStore stores values under "<prefix>:<key>" with an optional expiry.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a RedisStore.
type Option func(*RedisStore)

// WithPrefix namespaces keys, e.g. per environment.
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL lets abandoned flows expire. Zero keeps records until overwritten or deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// New wraps an existing client.
func New(client *redis.Client, options ...Option) *RedisStore {
	s := &RedisStore{redis: client, prefix: defaultPrefix}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, correlation.ErrEmptyKey
	}
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

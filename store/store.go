package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cafebot/config"
)

// Store wraps the key-value backend with the few operation families the core
// needs: single values with optional expiry, hash field groups, membership
// sets and counters. Constructed once in main and injected everywhere.
type Store struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests and the sweep lock.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Client() *redis.Client {
	return s.client
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the value of key, and whether it existed.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, exp time.Duration) error {
	if err := s.client.Set(ctx, key, value, exp).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetNX sets key only if it does not exist, returning whether it was set.
// This is the atomic conditional-set behind the rate-limit marker.
func (s *Store) SetNX(ctx context.Context, key, value string, exp time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, exp).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// TTL returns the remaining lifetime of key, or 0 when the key has no expiry
// or does not exist.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// GetJSON unmarshals the value at key into dest, reporting whether it existed.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, obj any, exp time.Duration) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw), exp)
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	return m, nil
}

func (s *Store) HSet(ctx context.Context, key string, fieldValues ...any) error {
	if err := s.client.HSet(ctx, key, fieldValues...).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// HSetNX sets a hash field only when absent (first-order-if-unset semantics).
func (s *Store) HSetNX(ctx context.Context, key, field, value string) error {
	if err := s.client.HSetNX(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("redis hsetnx %s: %w", key, err)
	}
	return nil
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	if err := s.client.HIncrBy(ctx, key, field, incr).Err(); err != nil {
		return fmt.Errorf("redis hincrby %s: %w", key, err)
	}
	return nil
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if err := s.client.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}

func (s *Store) SAdd(ctx context.Context, key, member string) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", key, err)
	}
	return nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", key, err)
	}
	return members, nil
}

func (s *Store) SRem(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", key, err)
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, key string) error {
	if err := s.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis incr %s: %w", key, err)
	}
	return nil
}

func (s *Store) IncrBy(ctx context.Context, key string, n int64) error {
	if err := s.client.IncrBy(ctx, key, n).Err(); err != nil {
		return fmt.Errorf("redis incrby %s: %w", key, err)
	}
	return nil
}

package kvs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-based implementation of Store.
// It backs hosted/kiosk shell deployments where several shell processes
// share one session record. Namespace isolation uses key prefixes.
type RedisStore struct {
	prefix string
	client *redis.Client
	closed bool
	mu     sync.RWMutex
}

// NewRedisStore creates a new Redis store for the given namespace.
func NewRedisStore(namespace string, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kvs/redis: failed to connect to %s: %w", cfg.Addr, err)
	}

	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}

	return &RedisStore{prefix: prefix, client: client}, nil
}

func (r *RedisStore) prefixedKey(key string) string {
	return r.prefix + key
}

// Get retrieves a value by key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, ErrClosed
	}
	r.mu.RUnlock()

	result, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/redis: get failed: %w", err)
	}

	return result, nil
}

// Set stores a value with optional TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	r.mu.RUnlock()

	if err := r.client.Set(ctx, r.prefixedKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("kvs/redis: set failed: %w", err)
	}

	return nil
}

// Delete removes a key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	r.mu.RUnlock()

	if err := r.client.Del(ctx, r.prefixedKey(key)).Err(); err != nil {
		return fmt.Errorf("kvs/redis: delete failed: %w", err)
	}

	return nil
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true

	return r.client.Close()
}

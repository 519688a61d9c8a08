// Package kvs provides a small key-value store abstraction used for
// persisted shell state, with implementations for OS keyring, LevelDB,
// Redis and memory.
package kvs

import (
	"context"
	"errors"
	"time"
)

// Store is a key-value store interface with optional per-key TTL.
// All implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with optional TTL. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources. Operations after Close return ErrClosed.
	Close() error
}

// Common errors
var (
	// ErrNotFound is returned when a key is not found or has expired.
	ErrNotFound = errors.New("kvs: key not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("kvs: store is closed")
)

// Config selects and configures a store backend.
type Config struct {
	// Type specifies the store type: "keyring", "leveldb", "redis" or "memory".
	// The zero value selects "keyring" since the data held here is a credential.
	Type string `yaml:"type" json:"type"`

	// Namespace provides logical isolation within the backend
	// (keyring service name, LevelDB directory suffix, Redis key prefix).
	Namespace string `yaml:"namespace" json:"namespace"`

	Keyring KeyringConfig `yaml:"keyring" json:"keyring"`
	LevelDB LevelDBConfig `yaml:"leveldb" json:"leveldb"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Memory  MemoryConfig  `yaml:"memory" json:"memory"`
}

// KeyringConfig configures the OS keyring store.
type KeyringConfig struct {
	// ServiceName identifies the application to the OS credential store.
	// Default: "mailshell".
	ServiceName string `yaml:"service_name" json:"service_name"`

	// FileDir is used by the encrypted-file fallback backend.
	FileDir string `yaml:"file_dir" json:"file_dir"`

	// FilePassword unlocks the encrypted-file fallback backend.
	FilePassword string `yaml:"file_password" json:"file_password"`
}

// LevelDBConfig configures the LevelDB store.
type LevelDBConfig struct {
	// Path is the directory for LevelDB storage.
	// If empty, a directory under the OS cache dir is used.
	Path string `yaml:"path" json:"path"`

	// SyncWrites enables synchronous writes (slower but safer).
	SyncWrites bool `yaml:"sync_writes" json:"sync_writes"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string `yaml:"addr" json:"addr"`

	// Password is the Redis password (optional)
	Password string `yaml:"password" json:"password"`

	// DB is the Redis database number
	DB int `yaml:"db" json:"db"`
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// CleanupInterval is how often to sweep expired keys. Default: 5 minutes.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// New creates a store based on the provided config.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "keyring", "":
		return NewKeyringStore(cfg.Namespace, cfg.Keyring)
	case "leveldb":
		return NewLevelDBStore(cfg.Namespace, cfg.LevelDB)
	case "redis":
		return NewRedisStore(cfg.Namespace, cfg.Redis)
	case "memory":
		return NewMemoryStore(cfg.Namespace, cfg.Memory)
	default:
		return nil, errors.New("kvs: unsupported store type: " + cfg.Type)
	}
}

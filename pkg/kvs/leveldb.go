package kvs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	lverrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore is a LevelDB-based implementation of Store used by desktop
// shells that keep non-secret state (last-visited path, caches) on disk.
// TTL is encoded into each value; expired keys are dropped lazily on read.
type LevelDBStore struct {
	db     *leveldb.DB
	closed bool
	mu     sync.RWMutex
}

// NewLevelDBStore creates a new LevelDB store.
func NewLevelDBStore(namespace string, cfg LevelDBConfig) (*LevelDBStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}

		dirName := "mailshell"
		if namespace != "" {
			sanitized := strings.Map(func(r rune) rune {
				if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
					return r
				}
				return '-'
			}, namespace)
			dirName = fmt.Sprintf("%s-%s", dirName, sanitized)
		}

		dbPath = filepath.Join(cacheDir, dirName)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kvs/leveldb: failed to create directory: %w", err)
	}

	opts := &opt.Options{
		Strict:      opt.DefaultStrict,
		Compression: opt.SnappyCompression,
	}
	if cfg.SyncWrites {
		opts.NoSync = false
	}

	db, err := leveldb.OpenFile(dbPath, opts)
	if err != nil {
		if _, ok := err.(*lverrors.ErrCorrupted); ok {
			db, err = leveldb.RecoverFile(dbPath, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("kvs/leveldb: failed to open database at %s: %w", dbPath, err)
		}
	}

	return &LevelDBStore{db: db}, nil
}

// Get retrieves a value by key.
func (l *LevelDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrClosed
	}
	l.mu.RUnlock()

	encoded, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/leveldb: get failed: %w", err)
	}

	value, expired, err := decodeValue(encoded)
	if err != nil {
		return nil, err
	}
	if expired {
		_ = l.db.Delete([]byte(key), nil)
		return nil, ErrNotFound
	}

	return value, nil
}

// Set stores a value with optional TTL.
func (l *LevelDBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	l.mu.RUnlock()

	if err := l.db.Put([]byte(key), encodeValue(value, ttl), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: set failed: %w", err)
	}

	return nil
}

// Delete removes a key.
func (l *LevelDBStore) Delete(ctx context.Context, key string) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	l.mu.RUnlock()

	if err := l.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: delete failed: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (l *LevelDBStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.closed = true

	if err := l.db.Close(); err != nil {
		return fmt.Errorf("kvs/leveldb: close failed: %w", err)
	}
	return nil
}

package kvs

import (
	"context"
	"sync"
	"time"
)

// memoryItem represents a stored item with expiration.
type memoryItem struct {
	value     []byte
	expiresAt time.Time // Zero value means no expiration
}

// MemoryStore is an in-memory implementation of Store.
// Data is volatile and lost when the process exits; it is used for tests
// and for ephemeral shell sessions that must not touch the OS keyring.
type MemoryStore struct {
	prefix          string
	items           map[string]*memoryItem
	mu              sync.RWMutex
	closed          bool
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(namespace string, cfg MemoryConfig) (*MemoryStore, error) {
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}

	store := &MemoryStore{
		prefix:          prefix,
		items:           make(map[string]*memoryItem),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}

	go store.cleanupLoop()

	return store, nil
}

func (m *MemoryStore) prefixedKey(key string) string {
	return m.prefix + key
}

// Get retrieves a value by key.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	item, exists := m.items[m.prefixedKey(key)]
	if !exists {
		return nil, ErrNotFound
	}

	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modification
	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, nil
}

// Set stores a value with optional TTL.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	item := &memoryItem{value: valueCopy}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	m.items[m.prefixedKey(key)] = item
	return nil
}

// Delete removes a key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, m.prefixedKey(key))
	return nil
}

// Close closes the store and stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	m.mu.Unlock()

	close(m.stopCleanup)
	<-m.cleanupDone

	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()

	return nil
}

// cleanupLoop runs periodically to remove expired items.
func (m *MemoryStore) cleanupLoop() {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *MemoryStore) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	now := time.Now()
	for key, item := range m.items {
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			delete(m.items, key)
		}
	}
}

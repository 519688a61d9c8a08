package kvs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/99designs/keyring"
)

// KeyringStore stores values in the OS credential store (macOS Keychain,
// freedesktop Secret Service, Windows Credential Manager) with an encrypted
// file fallback. It is the default backend because the session record is a
// bearer credential and must not land in plain files.
// TTL is encoded into each value; expired keys are dropped lazily on read.
type KeyringStore struct {
	ring   keyring.Keyring
	closed bool
	mu     sync.RWMutex
}

// NewKeyringStore opens the OS keyring under the given service namespace.
func NewKeyringStore(namespace string, cfg KeyringConfig) (*KeyringStore, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "mailshell"
	}
	if namespace != "" {
		serviceName = serviceName + "-" + namespace
	}

	fileDir := cfg.FileDir
	if fileDir == "" {
		fileDir = "~/.config/mailshell/credentials"
	}

	filePassword := cfg.FilePassword
	if filePassword == "" {
		filePassword = serviceName + "-file-key"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(filePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("kvs/keyring: opening keyring: %w", err)
	}

	return &KeyringStore{ring: ring}, nil
}

// Get retrieves a value by key.
func (k *KeyringStore) Get(ctx context.Context, key string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return nil, ErrClosed
	}

	item, err := k.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/keyring: get failed: %w", err)
	}

	value, expired, err := decodeValue(item.Data)
	if err != nil {
		return nil, err
	}
	if expired {
		_ = k.ring.Remove(key)
		return nil, ErrNotFound
	}

	return value, nil
}

// Set stores a value with optional TTL.
func (k *KeyringStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return ErrClosed
	}

	err := k.ring.Set(keyring.Item{
		Key:  key,
		Data: encodeValue(value, ttl),
	})
	if err != nil {
		return fmt.Errorf("kvs/keyring: set failed: %w", err)
	}

	return nil
}

// Delete removes a key.
func (k *KeyringStore) Delete(ctx context.Context, key string) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return ErrClosed
	}

	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("kvs/keyring: delete failed: %w", err)
	}

	return nil
}

// Close marks the store closed. The OS keyring itself holds no connection.
func (k *KeyringStore) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return ErrClosed
	}
	k.closed = true
	return nil
}

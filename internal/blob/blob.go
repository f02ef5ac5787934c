// Package blob defines the key-value contract the config document lives behind.
package blob

import (
	"context"
	"errors"
	"sync"
)

// ErrNotExist is returned by Get when the key is absent.
var ErrNotExist = errors.New("blob: key does not exist")

// Store is a minimal get/put blob store. Put overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
}

// Memory is an in-process Store used by the devserver and tests.
type Memory struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{objs: make(map[string][]byte)}
}

// Get returns a copy of the bytes stored under key, or ErrNotExist.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objs[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), b...), nil
}

// Put stores a copy of body under key, replacing any previous value.
func (m *Memory) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = append([]byte(nil), body...)
	return nil
}

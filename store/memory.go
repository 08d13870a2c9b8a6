package store

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is a thread-safe in-process Store used for development and tests.
type Memory struct {
	mu    sync.RWMutex
	items map[Key]Attributes
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		items: make(map[Key]Attributes),
	}
}

func (m *Memory) Get(_ context.Context, key Key, out any) error {
	if err := key.validate(); err != nil {
		return err
	}

	m.mu.RLock()
	attrs, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decode(attrs, out)
}

func (m *Memory) Put(_ context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	attrs, err := toAttributes(key, item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = attrs
	return nil
}

func (m *Memory) PutIfAbsent(_ context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	attrs, err := toAttributes(key, item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; exists {
		return ErrConditionFailed
	}
	m.items[key] = attrs
	return nil
}

func (m *Memory) Update(_ context.Context, key Key, fields map[string]any) error {
	if err := key.validate(); err != nil {
		return err
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[key]
	if !ok {
		return ErrNotFound
	}

	// Copy on write so readers holding the previous map are unaffected
	updated := existing.clone()
	for k, v := range patch {
		if k == AttrPK || k == AttrSK {
			continue
		}
		updated[k] = v
	}
	m.items[key] = updated
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Mem is an in-memory KV with the same JSON round-trip semantics as
// the Postgres implementation. Used by tests and single-binary dev
// runs.
type Mem struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMem() *Mem {
	return &Mem{data: make(map[string][]byte)}
}

func (m *Mem) Get(ctx context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mem) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Mem) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Apply marshals every value before touching the map, so a bad value
// leaves the store unchanged.
func (m *Mem) Apply(ctx context.Context, writes []Write) error {
	encoded := make([][]byte, len(writes))
	for i, w := range writes {
		if w.Remove {
			continue
		}
		raw, err := json.Marshal(w.Value)
		if err != nil {
			return err
		}
		encoded[i] = raw
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range writes {
		if w.Remove {
			delete(m.data, w.Key)
		} else {
			m.data[w.Key] = encoded[i]
		}
	}
	return nil
}

package persist

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, studyID string) (*Snapshot, error) {
	m.mu.RLock()
	data, ok := m.data[studyID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

func (m *MemoryStore) Save(_ context.Context, studyID string, snap *Snapshot) error {
	if err := ValidStudyID(studyID); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[studyID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, studyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[studyID]; !ok {
		return ErrNotFound
	}
	delete(m.data, studyID)
	return nil
}

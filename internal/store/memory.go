package store

import (
	"context"
	"sync"

	"github.com/spigell/interviewer/internal/session"
)

// Memory keeps snapshots as flat documents in process memory.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

func (m *Memory) Upsert(_ context.Context, snap *session.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	doc := snap.ToMap()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[snap.SessionID] = doc
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*session.Snapshot, error) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return session.SnapshotFromMap(doc)
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

var _ Store = (*Memory)(nil)

package storage

import (
	"context"
	"sync"
	"time"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// MemoryStore keeps snapshots in process memory. Entries hold the encoded
// form so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	nodes     int
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	data, err := encode(name, snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = memoryEntry{data: data, nodes: len(snap), updatedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}
	return decode(name, e.data)
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, len(s.entries))
	for name, e := range s.entries {
		infos = append(infos, Info{Name: name, Nodes: e.nodes, UpdatedAt: e.updatedAt})
	}
	sortInfos(infos)
	return infos, nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

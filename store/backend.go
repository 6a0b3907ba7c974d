package store

import (
	"sync"

	"github.com/axiomesh/axiom-kit/storage"
)

// Backend is the part of a key/value database the ledger needs.
type Backend interface {
	Get(key []byte) []byte
	NewBatch() Batch
}

type Batch interface {
	Put(key, value []byte)
	Commit()
}

type kitBackend struct {
	db storage.Storage
}

// FromStorage adapts an axiom-kit storage (leveldb in the daemon) to a Backend.
func FromStorage(db storage.Storage) Backend {
	return &kitBackend{db: db}
}

func (b *kitBackend) Get(key []byte) []byte {
	return b.db.Get(key)
}

func (b *kitBackend) NewBatch() Batch {
	return b.db.NewBatch()
}

// MemoryBackend keeps everything in a map, for tests and throwaway runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key []byte) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil
	}
	return append([]byte{}, v...)
}

func (m *MemoryBackend) NewBatch() Batch {
	return &memoryBatch{backend: m, writes: make(map[string][]byte)}
}

// Len reports the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type memoryBatch struct {
	backend *MemoryBackend
	writes  map[string][]byte
}

func (b *memoryBatch) Put(key, value []byte) {
	b.writes[string(key)] = append([]byte{}, value...)
}

func (b *memoryBatch) Commit() {
	b.backend.mu.Lock()
	defer b.backend.mu.Unlock()
	for k, v := range b.writes {
		b.backend.data[k] = v
	}
	b.writes = make(map[string][]byte)
}

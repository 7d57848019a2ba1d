package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore holds embedding vectors in memory, keyed by signal name and
// VectorKey.
type VectorStore struct {
	mu      sync.RWMutex
	vectors map[string]map[string][]float32 // signal name -> key string -> vector
	keys    map[string][]domain.VectorKey   // signal name -> stored keys
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		vectors: make(map[string]map[string][]float32),
		keys:    make(map[string][]domain.VectorKey),
	}
}

// Get retrieves one vector per key, same order and length as keys.
func (s *VectorStore) Get(_ context.Context, signalName string, keys []domain.VectorKey) ([][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byKey := s.vectors[signalName]
	out := make([][]float32, len(keys))
	for i, key := range keys {
		vec, ok := byKey[key.String()]
		if !ok {
			return nil, fmt.Errorf("vector %s for signal %q: %w", key.String(), signalName, domain.ErrNotFound)
		}
		out[i] = vec
	}
	return out, nil
}

// Has reports whether the signal has any vector stored under a concrete
// path the (possibly wildcarded) path addresses.
func (s *VectorStore) Has(signalName string, path domain.Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.keys[signalName] {
		if path.Matches(key.Path) {
			return true
		}
	}
	return false
}

// Put stores one vector.
func (s *VectorStore) Put(_ context.Context, signalName string, key domain.VectorKey, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.vectors[signalName]
	if !ok {
		byKey = make(map[string][]float32)
		s.vectors[signalName] = byKey
	}
	ks := key.String()
	if _, exists := byKey[ks]; !exists {
		s.keys[signalName] = append(s.keys[signalName], key)
	}
	stored := make([]float32, len(vector))
	copy(stored, vector)
	byKey[ks] = stored
	return nil
}

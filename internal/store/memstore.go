package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dusk-indust/curate/internal/annotation"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	documents map[string]map[string]*annotation.Collection // document -> annotator
	curations map[string]*annotation.Collection
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		documents: make(map[string]map[string]*annotation.Collection),
		curations: make(map[string]*annotation.Collection),
	}
}

// ListDocuments returns the names of all documents with at least one annotator.
func (m *MemStore) ListDocuments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.documents))
	for name := range m.documents {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// LoadAnnotations returns copies of every annotator's collection.
func (m *MemStore) LoadAnnotations(_ context.Context, document string) (map[string]*annotation.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byAnnotator, ok := m.documents[document]
	if !ok {
		return nil, fmt.Errorf("%w: document %q", ErrNotFound, document)
	}
	out := make(map[string]*annotation.Collection, len(byAnnotator))
	for name, c := range byAnnotator {
		out[name] = cloneCollection(c)
	}
	return out, nil
}

// SaveAnnotations stores a copy of coll.
func (m *MemStore) SaveAnnotations(_ context.Context, document, annotator string, coll *annotation.Collection) error {
	if document == "" || annotator == "" {
		return fmt.Errorf("store: document and annotator are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.documents[document] == nil {
		m.documents[document] = make(map[string]*annotation.Collection)
	}
	m.documents[document][annotator] = cloneCollection(coll)
	return nil
}

// LoadCuration returns a copy of the curated collection.
func (m *MemStore) LoadCuration(_ context.Context, document string) (*annotation.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.curations[document]
	if !ok {
		return nil, fmt.Errorf("%w: curation %q", ErrNotFound, document)
	}
	return cloneCollection(c), nil
}

// SaveCuration stores a copy of coll.
func (m *MemStore) SaveCuration(_ context.Context, document string, coll *annotation.Collection) error {
	if document == "" {
		return fmt.Errorf("store: document is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curations[document] = cloneCollection(coll)
	return nil
}

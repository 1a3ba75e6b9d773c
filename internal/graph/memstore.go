package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu             sync.RWMutex
	positions      map[string]PositionNode
	configurations map[string]ConfigurationNode
	votes          map[Vote]struct{}
	annotators     map[string]struct{}
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		positions:      make(map[string]PositionNode),
		configurations: make(map[string]ConfigurationNode),
		votes:          make(map[Vote]struct{}),
		annotators:     make(map[string]struct{}),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// AddPosition stores a position node keyed by its ID.
func (m *MemStore) AddPosition(_ context.Context, node PositionNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[node.ID] = node
	return nil
}

// AddConfiguration stores a configuration node. Its position must exist.
func (m *MemStore) AddConfiguration(_ context.Context, node ConfigurationNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[node.PositionID]; !ok {
		return fmt.Errorf("graph: configuration %q: unknown position %q", node.ID, node.PositionID)
	}
	m.configurations[node.ID] = node
	return nil
}

// AddVote records a vote. Its configuration must exist.
func (m *MemStore) AddVote(_ context.Context, vote Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configurations[vote.ConfigurationID]; !ok {
		return fmt.Errorf("graph: vote by %q: unknown configuration %q", vote.Annotator, vote.ConfigurationID)
	}
	m.annotators[vote.Annotator] = struct{}{}
	m.votes[vote] = struct{}{}
	return nil
}

// DeleteDocument drops the positions, configurations and votes of document.
func (m *MemStore) DeleteDocument(_ context.Context, document string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.configurations {
		if c.Document == document {
			delete(m.configurations, id)
		}
	}
	for id, p := range m.positions {
		if p.Document == document {
			delete(m.positions, id)
		}
	}
	for v := range m.votes {
		if _, ok := m.configurations[v.ConfigurationID]; !ok {
			delete(m.votes, v)
		}
	}
	return nil
}

// GetPositions returns the positions of document sorted by ID.
func (m *MemStore) GetPositions(_ context.Context, document string) ([]PositionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positionsWhere(func(p PositionNode) bool {
		return document == "" || p.Document == document
	}), nil
}

// GetConfigurations returns the configurations at a position sorted by ID.
func (m *MemStore) GetConfigurations(_ context.Context, positionID string) ([]ConfigurationNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ConfigurationNode
	for _, c := range m.configurations {
		if c.PositionID == positionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetVoters returns the annotators who voted for a configuration, sorted.
func (m *MemStore) GetVoters(_ context.Context, configurationID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for v := range m.votes {
		if v.ConfigurationID == configurationID {
			out = append(out, v.Annotator)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Disputed returns disputed positions of document.
func (m *MemStore) Disputed(_ context.Context, document string, limit int) ([]PositionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.positionsWhere(func(p PositionNode) bool {
		return p.Status == StatusDisputed && (document == "" || p.Document == document)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Agreements counts shared votes per annotator pair.
func (m *MemStore) Agreements(_ context.Context, document string) ([]Agreement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byConfig := make(map[string][]string)
	for v := range m.votes {
		c := m.configurations[v.ConfigurationID]
		if document != "" && c.Document != document {
			continue
		}
		byConfig[v.ConfigurationID] = append(byConfig[v.ConfigurationID], v.Annotator)
	}

	type pair struct{ a, b string }
	shared := make(map[pair]int)
	for _, voters := range byConfig {
		sort.Strings(voters)
		for i := range voters {
			for j := i + 1; j < len(voters); j++ {
				shared[pair{voters[i], voters[j]}]++
			}
		}
	}

	out := make([]Agreement, 0, len(shared))
	for p, n := range shared {
		out = append(out, Agreement{A: p.a, B: p.b, Shared: n})
	}
	sortAgreements(out)
	return out, nil
}

// Stats returns counts of all nodes and votes.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	disputed := 0
	for _, p := range m.positions {
		if p.Status == StatusDisputed {
			disputed++
		}
	}
	return &Stats{
		PositionCount:      len(m.positions),
		ConfigurationCount: len(m.configurations),
		AnnotatorCount:     len(m.annotators),
		VoteCount:          len(m.votes),
		DisputedCount:      disputed,
	}, nil
}

func (m *MemStore) positionsWhere(keep func(PositionNode) bool) []PositionNode {
	var out []PositionNode
	for _, p := range m.positions {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortAgreements(out []Agreement) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
}

package merge

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registered strategy names.
const (
	NameThreshold         = "threshold"
	NameCompleteAgreement = "complete-agreement"
	NameIncomplete        = "incomplete"
	NameManual            = "manual"
)

// ErrUnknownStrategy is returned by Build for names without a factory.
var ErrUnknownStrategy = errors.New("merge: unknown strategy")

// Traits are the user-supplied parameters of a strategy, as stored in
// project configuration.
type Traits struct {
	Name                string  `yaml:"name,omitempty" json:"name,omitempty"`
	UserThreshold       int     `yaml:"userThreshold,omitempty" json:"userThreshold,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidenceThreshold,omitempty" json:"confidenceThreshold,omitempty"`
	TopRanks            int     `yaml:"topRanks,omitempty" json:"topRanks,omitempty"`
}

// Factory builds a Strategy from traits.
type Factory func(Traits) (Strategy, error)

// Registry maps strategy names to their factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry pre-registered with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories[NameThreshold] = func(t Traits) (Strategy, error) {
		return NewThresholdBased(t.UserThreshold, t.ConfidenceThreshold, t.TopRanks)
	}
	r.factories[NameCompleteAgreement] = func(Traits) (Strategy, error) { return CompleteAgreement{}, nil }
	r.factories[NameIncomplete] = func(Traits) (Strategy, error) { return MergeIncomplete{}, nil }
	r.factories[NameManual] = func(Traits) (Strategy, error) { return Manual{}, nil }
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build creates the strategy named by t.Name. An empty name selects
// complete agreement.
func (r *Registry) Build(t Traits) (Strategy, error) {
	name := t.Name
	if name == "" {
		name = NameCompleteAgreement
	}

	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return f(t)
}

// Names lists the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

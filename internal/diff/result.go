package diff

import (
	"slices"

	"github.com/dusk-indust/curate/internal/annotation"
)

// Result is the frozen outcome of one Diff call: every configuration set of
// the document in position order plus the diagnostics of skipped annotations.
type Result struct {
	annotators  []string
	sets        []*ConfigurationSet
	index       map[Key]*ConfigurationSet
	collections map[string]*annotation.Collection
	diagnostics []Diagnostic
}

// Annotators returns the annotators of the run in lexicographic order.
func (r *Result) Annotators() []string {
	return slices.Clone(r.annotators)
}

// ConfigurationSets returns all sets in position order.
func (r *Result) ConfigurationSets() []*ConfigurationSet {
	return slices.Clone(r.sets)
}

// Len returns the number of configuration sets.
func (r *Result) Len() int {
	return len(r.sets)
}

// ConfigurationSet looks up the set for pos by structural equality.
func (r *Result) ConfigurationSet(pos Position) (*ConfigurationSet, bool) {
	s, ok := r.index[pos.Key()]
	return s, ok
}

// ForType returns the sets whose position has the given annotation type.
func (r *Result) ForType(typ string) []*ConfigurationSet {
	return r.filter(func(s *ConfigurationSet) bool { return s.position.Type == typ })
}

// Disagreements returns the sets with more than one configuration.
func (r *Result) Disagreements() []*ConfigurationSet {
	return r.filter(func(s *ConfigurationSet) bool { return s.Len() > 1 })
}

// Incomplete returns the sets that at least one annotator did not annotate.
func (r *Result) Incomplete() []*ConfigurationSet {
	return r.filter(func(s *ConfigurationSet) bool { return !s.IsComplete() })
}

// IsAgreement reports whether every set is a complete agreement.
func (r *Result) IsAgreement() bool {
	for _, s := range r.sets {
		if !s.IsAgreement() {
			return false
		}
	}
	return true
}

// Diagnostics returns the annotations skipped as malformed.
func (r *Result) Diagnostics() []Diagnostic {
	return slices.Clone(r.diagnostics)
}

// Collection returns the input collection of annotator.
func (r *Result) Collection(annotator string) (*annotation.Collection, bool) {
	c, ok := r.collections[annotator]
	return c, ok && c != nil
}

// Resolve returns the annotation an AID points to.
func (r *Result) Resolve(aid AID) (annotation.Annotation, bool) {
	coll, ok := r.Collection(aid.Annotator)
	if !ok {
		return annotation.Annotation{}, false
	}
	return coll.At(aid.Index)
}

// ResolveLink returns the slot filler an AID points to. It fails for AIDs
// that reference a whole annotation.
func (r *Result) ResolveLink(aid AID) (annotation.Link, bool) {
	if aid.Feature == "" || aid.Slot < 0 {
		return annotation.Link{}, false
	}
	ann, ok := r.Resolve(aid)
	if !ok {
		return annotation.Link{}, false
	}
	links := ann.Links[aid.Feature]
	if aid.Slot >= len(links) {
		return annotation.Link{}, false
	}
	return links[aid.Slot], true
}

func (r *Result) filter(keep func(*ConfigurationSet) bool) []*ConfigurationSet {
	var out []*ConfigurationSet
	for _, s := range r.sets {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

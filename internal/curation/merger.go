package curation

import (
	"fmt"
	"maps"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
)

// CuratorID is the CasID given to curated collections.
const CuratorID = "curation"

// Decision is the outcome of merging one position.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionDisputed Decision = "disputed" // several configurations, none accepted
	DecisionRejected Decision = "rejected"
)

// Entry records what happened at one position.
type Entry struct {
	Position diff.Position `json:"-"`
	ID       string        `json:"position"`
	Decision Decision      `json:"decision"`
	Value    string        `json:"value,omitempty"`
	Votes    int           `json:"votes,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// Log lists merge entries in the order positions were processed: spans,
// then relations, then links.
type Log struct {
	Entries []Entry `json:"entries"`
}

// Count returns the number of entries with decision d.
func (l *Log) Count(d Decision) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, e := range l.Entries {
		if e.Decision == d {
			n++
		}
	}
	return n
}

func (l *Log) add(pos diff.Position, d Decision, cfg *diff.Configuration, reason string) {
	e := Entry{Position: pos, ID: pos.ID(), Decision: d, Reason: reason}
	if cfg != nil {
		e.Value = cfg.Value().String()
		e.Votes = cfg.Votes()
	}
	l.Entries = append(l.Entries, e)
}

// Merger materialises the configurations a strategy accepts into a single
// curated collection.
type Merger struct {
	layers   map[string]layer.Layer
	strategy merge.Strategy
}

// NewMerger creates a Merger for the given layers and strategy.
func NewMerger(layers []layer.Layer, strategy merge.Strategy) *Merger {
	return &Merger{layers: layer.Index(layers), strategy: strategy}
}

// Strategy returns the merge strategy.
func (m *Merger) Strategy() merge.Strategy { return m.strategy }

// Merge builds the curated collection for result. Spans are merged first so
// that relations and links can be attached to them. A relation is kept only
// when both endpoints made it into the curated collection; a link only when
// its host and target did.
func (m *Merger) Merge(result *diff.Result) (*annotation.Collection, *Log) {
	st := &mergeState{
		result: result,
		out:    &annotation.Collection{CasID: CuratorID, Annotations: []annotation.Annotation{}},
		index:  make(map[string]map[int]int),
		log:    &Log{},
	}
	for _, name := range result.Annotators() {
		if c, ok := result.Collection(name); ok && c.Document != nil {
			doc := *c.Document
			st.out.Document = &doc
			break
		}
	}

	sets := result.ConfigurationSets()
	for _, set := range sets {
		if l, ok := m.layers[set.Position().Type]; ok && l.Shape() == layer.KindSpan && !set.Position().IsLink() {
			m.mergeSpan(st, l, set)
		}
	}
	for _, set := range sets {
		if l, ok := m.layers[set.Position().Type]; ok && l.Shape() == layer.KindRelation && !set.Position().IsLink() {
			m.mergeRelation(st, l, set)
		}
	}
	for _, set := range sets {
		pos := set.Position()
		if l, ok := m.layers[pos.Type]; ok && pos.IsLink() && pos.LinkCompare == l.LinkCompare {
			m.mergeLink(st, set)
		}
	}
	return st.out, st.log
}

// choose applies the strategy and logs the unresolved case. It returns nil
// when nothing was accepted.
func (m *Merger) choose(st *mergeState, l layer.Layer, set *diff.ConfigurationSet) []*diff.Configuration {
	chosen := m.strategy.Choose(set, l.Overlap())
	if len(chosen) > 0 {
		return chosen
	}
	if set.Len() > 1 {
		st.log.add(set.Position(), DecisionDisputed, nil, fmt.Sprintf("%d configurations", set.Len()))
	} else {
		st.log.add(set.Position(), DecisionRejected, nil, "not accepted by "+m.strategy.Name())
	}
	return nil
}

func (m *Merger) mergeSpan(st *mergeState, l layer.Layer, set *diff.ConfigurationSet) {
	for _, cfg := range m.choose(st, l, set) {
		src, ok := st.representative(cfg)
		if !ok {
			st.log.add(set.Position(), DecisionRejected, cfg, "annotation not resolvable")
			continue
		}
		cand := annotation.Annotation{
			Type:     l.Type,
			Begin:    src.Begin,
			End:      src.End,
			Features: labelFeatures(l, src),
		}
		if reason := spanConflict(st.out, cand, l.Overlap()); reason != "" {
			st.log.add(set.Position(), DecisionRejected, cfg, reason)
			continue
		}
		st.accept(cfg, cand)
	}
}

func (m *Merger) mergeRelation(st *mergeState, l layer.Layer, set *diff.ConfigurationSet) {
	for _, cfg := range m.choose(st, l, set) {
		aid, _ := cfg.Representative()
		src, ok := st.result.Resolve(aid)
		if !ok || src.Source == nil || src.Target == nil {
			st.log.add(set.Position(), DecisionRejected, cfg, "relation not resolvable")
			continue
		}
		from, okFrom := st.curatedIndex(aid.Annotator, *src.Source)
		to, okTo := st.curatedIndex(aid.Annotator, *src.Target)
		if !okFrom || !okTo {
			st.log.add(set.Position(), DecisionRejected, cfg, "relation endpoint not in curated document")
			continue
		}
		target := st.out.Annotations[to]
		cand := annotation.Annotation{
			Type:     l.Type,
			Begin:    target.Begin,
			End:      target.End,
			Features: labelFeatures(l, src),
			Source:   &from,
			Target:   &to,
		}
		if reason := relationConflict(st.out, cand, l.Overlap()); reason != "" {
			st.log.add(set.Position(), DecisionRejected, cfg, reason)
			continue
		}
		st.accept(cfg, cand)
	}
}

func (m *Merger) mergeLink(st *mergeState, set *diff.ConfigurationSet) {
	l := m.layers[set.Position().Type]
	for _, cfg := range m.choose(st, l, set) {
		aid, _ := cfg.Representative()
		link, ok := st.result.ResolveLink(aid)
		if !ok {
			st.log.add(set.Position(), DecisionRejected, cfg, "link not resolvable")
			continue
		}
		host, okHost := st.curatedIndex(aid.Annotator, aid.Index)
		target, okTarget := st.curatedIndex(aid.Annotator, link.Target)
		switch {
		case !okHost:
			st.log.add(set.Position(), DecisionRejected, cfg, "link host not in curated document")
			continue
		case !okTarget:
			st.log.add(set.Position(), DecisionRejected, cfg, "link target not in curated document")
			continue
		}

		ann := &st.out.Annotations[host]
		filler := annotation.Link{Role: link.Role, Target: target}
		if containsLink(ann.Links[aid.Feature], filler) {
			st.log.add(set.Position(), DecisionRejected, cfg, "link already present")
			continue
		}
		if ann.Links == nil {
			ann.Links = make(map[string][]annotation.Link)
		}
		ann.Links[aid.Feature] = append(ann.Links[aid.Feature], filler)
		st.log.add(set.Position(), DecisionAccepted, cfg, "")
	}
}

// mergeState is the scratch state of one Merge call.
type mergeState struct {
	result *diff.Result
	out    *annotation.Collection
	index  map[string]map[int]int // annotator -> source index -> curated index
	log    *Log
}

func (st *mergeState) representative(cfg *diff.Configuration) (annotation.Annotation, bool) {
	aid, ok := cfg.Representative()
	if !ok {
		return annotation.Annotation{}, false
	}
	return st.result.Resolve(aid)
}

// accept appends cand and maps every voter's source annotation onto it.
func (st *mergeState) accept(cfg *diff.Configuration, cand annotation.Annotation) {
	idx := st.out.Add(cand)
	for _, name := range cfg.Annotators() {
		if st.index[name] == nil {
			st.index[name] = make(map[int]int)
		}
		for _, aid := range cfg.AIDs(name) {
			st.index[name][aid.Index] = idx
		}
	}
	st.log.add(cfg.Position(), DecisionAccepted, cfg, "")
}

// curatedIndex maps an annotation of annotator onto the curated collection.
// Annotations the annotator voted for map directly; otherwise a curated
// annotation of the same type and offsets stands in, preferring one with
// the same features.
func (st *mergeState) curatedIndex(annotator string, idx int) (int, bool) {
	if ci, ok := st.index[annotator][idx]; ok {
		return ci, true
	}
	src, ok := st.result.Resolve(diff.AID{Annotator: annotator, Index: idx, Slot: -1})
	if !ok {
		return -1, false
	}
	hits := st.out.Find(src.Type, src.Begin, src.End)
	if len(hits) == 0 {
		return -1, false
	}
	for _, h := range hits {
		if maps.Equal(st.out.Annotations[h].Features, src.Features) {
			return h, true
		}
	}
	return hits[0], true
}

func labelFeatures(l layer.Layer, src annotation.Annotation) map[string]string {
	if len(l.LabelFeatures) == 0 {
		return nil
	}
	out := make(map[string]string, len(l.LabelFeatures))
	for _, name := range l.LabelFeatures {
		if v, ok := src.Features[name]; ok {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// spanConflict checks cand against curated spans of the same type.
func spanConflict(out *annotation.Collection, cand annotation.Annotation, mode layer.OverlapMode) string {
	for _, i := range out.OfType(cand.Type) {
		ex := out.Annotations[i]
		switch {
		case annotation.SameSpan(ex, cand):
			if !mode.AllowsStacking() {
				return fmt.Sprintf("stacking not allowed by %s", mode)
			}
		case annotation.Overlaps(ex, cand):
			if !mode.AllowsOverlap() {
				return fmt.Sprintf("overlap not allowed by %s", mode)
			}
		}
	}
	return ""
}

// relationConflict treats relations between the same endpoints as stacked
// and relations sharing one endpoint as overlapping.
func relationConflict(out *annotation.Collection, cand annotation.Annotation, mode layer.OverlapMode) string {
	for _, i := range out.OfType(cand.Type) {
		ex := out.Annotations[i]
		if ex.Source == nil || ex.Target == nil {
			continue
		}
		sameSource := *ex.Source == *cand.Source
		sameTarget := *ex.Target == *cand.Target
		switch {
		case sameSource && sameTarget:
			if !mode.AllowsStacking() {
				return fmt.Sprintf("stacking not allowed by %s", mode)
			}
		case sameSource || sameTarget:
			if !mode.AllowsOverlap() {
				return fmt.Sprintf("overlap not allowed by %s", mode)
			}
		}
	}
	return ""
}

func containsLink(links []annotation.Link, l annotation.Link) bool {
	for _, x := range links {
		if x == l {
			return true
		}
	}
	return false
}

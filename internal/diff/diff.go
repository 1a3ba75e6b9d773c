package diff

import (
	"cmp"
	"errors"
	"fmt"
	"log"
	"slices"
	"sort"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/layer"
)

// Differ groups the annotations of several annotators into configuration sets.
// A Differ holds only immutable settings and may be shared; each Diff call
// builds its own state.
type Differ struct {
	adapters map[string]Adapter
	extra    []layer.LinkCompareBehavior
	quiet    bool
}

// Option configures a Differ.
type Option func(*Differ)

// WithLinkBehaviors compares link features under the given behaviours in
// addition to each layer's own one.
func WithLinkBehaviors(behaviors ...layer.LinkCompareBehavior) Option {
	return func(d *Differ) {
		d.extra = append(d.extra, behaviors...)
	}
}

// WithoutLogging suppresses the log line written for each skipped annotation.
// Diagnostics are still collected.
func WithoutLogging() Option {
	return func(d *Differ) { d.quiet = true }
}

// New creates a Differ for the given layers. Annotations whose type has no
// layer are out of scope and ignored. Every layer must be valid and defined
// once.
func New(layers []layer.Layer, opts ...Option) (*Differ, error) {
	d := &Differ{adapters: make(map[string]Adapter, len(layers))}
	for _, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		if _, dup := d.adapters[l.Type]; dup {
			return nil, fmt.Errorf("diff: layer %q defined twice", l.Type)
		}
		d.adapters[l.Type] = NewAdapter(l)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// MustNew is like New but panics when a layer is invalid. It is meant for
// layers fixed at compile time.
func MustNew(layers []layer.Layer, opts ...Option) *Differ {
	d, err := New(layers, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Layers returns the layer definitions in type order.
func (d *Differ) Layers() []layer.Layer {
	out := make([]layer.Layer, 0, len(d.adapters))
	for _, a := range d.adapters {
		out = append(out, a.Layer())
	}
	slices.SortFunc(out, func(a, b layer.Layer) int { return cmp.Compare(a.Type, b.Type) })
	return out
}

// Diagnostic records an annotation skipped because it was malformed.
type Diagnostic struct {
	Annotator string
	CasID     string
	Index     int
	Type      string
	Reason    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s#%d (%s): %s", d.Annotator, d.Index, d.Type, d.Reason)
}

// Diff computes the configuration sets for one document. collections maps
// annotator names to their annotations; a nil collection counts as an
// annotator that annotated nothing. Malformed annotations are skipped and
// reported in Result.Diagnostics.
func (d *Differ) Diff(collections map[string]*annotation.Collection) *Result {
	annotators := make([]string, 0, len(collections))
	for name := range collections {
		annotators = append(annotators, name)
	}
	sort.Strings(annotators)

	b := &builder{
		annotators: annotators,
		sets:       make(map[Key]*ConfigurationSet),
	}

	for _, name := range annotators {
		coll := collections[name]
		src := newSource(coll)
		for _, idx := range d.scanOrder(coll) {
			ann := coll.Annotations[idx]
			adapter := d.adapters[ann.Type]
			if err := validate(src, ann, adapter.Layer()); err != nil {
				diag := Diagnostic{
					Annotator: name,
					CasID:     coll.CasID,
					Index:     idx,
					Type:      ann.Type,
					Reason:    err.Error(),
				}
				if !d.quiet {
					log.Printf("diff: skipping malformed annotation %s", diag)
				}
				b.diagnostics = append(b.diagnostics, diag)
				continue
			}
			d.collect(b, name, src, idx, adapter)
		}
	}

	return b.freeze(collections)
}

// scanOrder returns the in-scope annotation indexes of coll in position
// order, so that configuration order is reproducible.
func (d *Differ) scanOrder(coll *annotation.Collection) []int {
	if coll == nil {
		return nil
	}
	var idx []int
	for i, a := range coll.Annotations {
		if _, ok := d.adapters[a.Type]; ok {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		a, b := coll.Annotations[i], coll.Annotations[j]
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
			return c
		}
		return cmp.Compare(b.End, a.End)
	})
	return idx
}

// collect adds the whole-annotation position and every slot filler position
// of the annotation at idx.
func (d *Differ) collect(b *builder, annotator string, src source, idx int, adapter Adapter) {
	coll := src.coll
	ann := coll.Annotations[idx]

	pos := adapter.position(coll.CasID, src, ann, nil)
	b.add(pos, adapter.Value(ann, nil), AID{Annotator: annotator, Index: idx, Slot: -1})

	behaviors := d.linkBehaviors(adapter.Layer())
	for _, feature := range adapter.Layer().LinkFeatures {
		for slotIdx, link := range ann.Links[feature] {
			for _, behavior := range behaviors {
				slot := adapter.slot(src, feature, link, behavior)
				b.add(
					adapter.position(coll.CasID, src, ann, slot),
					adapter.Value(ann, slot),
					AID{Annotator: annotator, Index: idx, Feature: feature, Slot: slotIdx},
				)
			}
		}
	}
}

// linkBehaviors returns the layer's behaviour followed by any extra ones
// requested for this Differ, without duplicates.
func (d *Differ) linkBehaviors(l layer.Layer) []layer.LinkCompareBehavior {
	out := make([]layer.LinkCompareBehavior, 0, 1+len(d.extra))
	if l.LinkCompare != "" {
		out = append(out, l.LinkCompare)
	}
	for _, b := range d.extra {
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out
}

// validate rejects annotations whose offsets or references cannot be trusted.
func validate(src source, ann annotation.Annotation, l layer.Layer) error {
	coll := src.coll
	if err := checkSpan(src, ann); err != nil {
		return err
	}
	if l.Shape() == layer.KindRelation {
		if ann.Source == nil || ann.Target == nil {
			return errors.New("relation without source or target")
		}
		for _, ref := range []int{*ann.Source, *ann.Target} {
			end, ok := coll.At(ref)
			if !ok {
				return fmt.Errorf("relation endpoint %d out of range", ref)
			}
			if err := checkSpan(src, end); err != nil {
				return fmt.Errorf("relation endpoint %d: %w", ref, err)
			}
		}
	}
	for _, feature := range l.LinkFeatures {
		for i, link := range ann.Links[feature] {
			tgt, ok := coll.At(link.Target)
			if !ok {
				return fmt.Errorf("link %s[%d] target %d out of range", feature, i, link.Target)
			}
			if err := checkSpan(src, tgt); err != nil {
				return fmt.Errorf("link %s[%d] target: %w", feature, i, err)
			}
		}
	}
	return nil
}

func checkSpan(src source, ann annotation.Annotation) error {
	if ann.Begin < 0 {
		return fmt.Errorf("negative begin %d", ann.Begin)
	}
	if ann.Begin > ann.End {
		return fmt.Errorf("begin %d after end %d", ann.Begin, ann.End)
	}
	if n, ok := src.text.Bounds(); ok && ann.End > n {
		return fmt.Errorf("end %d beyond document length %d", ann.End, n)
	}
	return nil
}

// builder accumulates configuration sets during one Diff call.
type builder struct {
	annotators  []string
	sets        map[Key]*ConfigurationSet
	diagnostics []Diagnostic
}

func (b *builder) add(pos Position, value Value, aid AID) {
	key := pos.Key()
	set, ok := b.sets[key]
	if !ok {
		set = newConfigurationSet(pos, b.annotators)
		b.sets[key] = set
	}
	set.add(pos, value, aid)
}

// freeze produces the read-only Result. Sets are ordered by position.
func (b *builder) freeze(collections map[string]*annotation.Collection) *Result {
	sets := make([]*ConfigurationSet, 0, len(b.sets))
	for _, s := range b.sets {
		sets = append(sets, s)
	}
	slices.SortFunc(sets, func(a, b *ConfigurationSet) int {
		return Compare(a.position, b.position)
	})

	colls := make(map[string]*annotation.Collection, len(collections))
	for k, v := range collections {
		colls[k] = v
	}

	return &Result{
		annotators:  b.annotators,
		sets:        sets,
		index:       b.sets,
		collections: colls,
		diagnostics: b.diagnostics,
	}
}

package diff

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentence offsets: John 0-4, met 5-8, Mary 9-13, in 14-16, Paris 17-22.
const sentence = "John met Mary in Paris"

func span(typ string, begin, end int, kv ...string) annotation.Annotation {
	a := annotation.Annotation{Type: typ, Begin: begin, End: end}
	if len(kv) > 0 {
		a.Features = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			a.Features[kv[i]] = kv[i+1]
		}
	}
	return a
}

func relation(typ string, source, target int, kv ...string) annotation.Annotation {
	a := span(typ, 0, 0, kv...)
	a.Source = &source
	a.Target = &target
	return a
}

func withLinks(a annotation.Annotation, feature string, links ...annotation.Link) annotation.Annotation {
	if a.Links == nil {
		a.Links = make(map[string][]annotation.Link)
	}
	a.Links[feature] = append(a.Links[feature], links...)
	return a
}

func coll(casID string, anns ...annotation.Annotation) *annotation.Collection {
	return &annotation.Collection{
		CasID:       casID,
		Document:    &annotation.Document{Collection: "news", Name: "doc-1", Text: sentence},
		Annotations: anns,
	}
}

var (
	neLayer    = layer.Layer{Type: "ne", LabelFeatures: []string{"value"}}
	depLayer   = layer.Layer{Type: "dep", Kind: layer.KindRelation, LabelFeatures: []string{"label"}}
	eventLayer = layer.Layer{
		Type:          "event",
		LabelFeatures: []string{"value"},
		LinkFeatures:  []string{"args"},
		LinkCompare:   layer.LinkTargetAsLabel,
	}
)

func newTestDiffer(opts ...Option) *Differ {
	opts = append(opts, WithoutLogging())
	return MustNew([]layer.Layer{neLayer, depLayer, eventLayer}, opts...)
}

// snapshot flattens a result into plain values for equality checks.
func snapshot(r *Result) []string {
	var out []string
	for _, s := range r.ConfigurationSets() {
		for _, c := range s.Configurations() {
			out = append(out, s.Position().ID()+" "+c.String())
		}
	}
	return out
}

func TestDiff_EmptyInput(t *testing.T) {
	d := newTestDiffer()

	r := d.Diff(nil)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Annotators())
	assert.True(t, r.IsAgreement(), "nothing to disagree about")

	r = d.Diff(map[string]*annotation.Collection{"alice": coll("a"), "bob": nil})
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []string{"alice", "bob"}, r.Annotators())
	assert.Empty(t, r.Diagnostics())
}

func TestDiff_AgreementAndDisagreement(t *testing.T) {
	d := newTestDiffer()
	r := d.Diff(map[string]*annotation.Collection{
		"alice": coll("a", span("ne", 0, 4, "value", "PER")),
		"bob":   coll("b", span("ne", 0, 4, "value", "PER")),
		"carol": coll("c", span("ne", 0, 4, "value", "LOC")),
		"dave":  coll("d", span("ne", 17, 22, "value", "LOC")),
	})

	require.Equal(t, 2, r.Len())
	sets := r.ConfigurationSets()

	john := sets[0]
	assert.Equal(t, 0, john.Position().Begin)
	require.Equal(t, 2, john.Len())
	cfgs := john.Configurations()
	assert.Equal(t, []string{"alice", "bob"}, cfgs[0].Annotators())
	assert.Equal(t, 2, cfgs[0].Votes())
	assert.Equal(t, []string{"carol"}, cfgs[1].Annotators())
	assert.Equal(t, 3, john.Votes())
	assert.Equal(t, []string{"dave"}, john.Missing())
	assert.False(t, john.IsComplete())
	assert.False(t, john.IsAgreement())

	paris := sets[1]
	assert.Equal(t, "Paris", paris.Position().Text)
	assert.Equal(t, []string{"dave"}, paris.Annotators())
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, paris.AllAnnotators())

	assert.Len(t, r.Disagreements(), 1)
	assert.Len(t, r.Incomplete(), 2)
	assert.Len(t, r.ForType("ne"), 2)
	assert.Empty(t, r.ForType("pos"))
	assert.False(t, r.IsAgreement())

	got, ok := r.ConfigurationSet(Position{Kind: layer.KindSpan, Type: "ne", Begin: 0, End: 4, CasID: "whatever"})
	require.True(t, ok, "lookup is structural")
	assert.Same(t, john, got)
}

func TestDiff_CompleteAgreement(t *testing.T) {
	r := newTestDiffer().Diff(map[string]*annotation.Collection{
		"alice": coll("a", span("ne", 9, 13, "value", "PER")),
		"bob":   coll("b", span("ne", 9, 13, "value", "PER")),
	})
	require.Equal(t, 1, r.Len())
	assert.True(t, r.ConfigurationSets()[0].IsAgreement())
	assert.True(t, r.IsAgreement())
}

func TestDiff_IsDeterministic(t *testing.T) {
	input := func() map[string]*annotation.Collection {
		return map[string]*annotation.Collection{
			"zoe":   coll("z", span("ne", 17, 22, "value", "LOC"), span("ne", 0, 4, "value", "PER")),
			"alice": coll("a", span("ne", 0, 4, "value", "ORG"), span("ne", 9, 13, "value", "PER")),
			"mike":  coll("m", span("ne", 0, 4, "value", "PER"), span("ne", 0, 4, "value", "ORG")),
			"bob":   coll("b", span("ne", 17, 22, "value", "GPE")),
		}
	}
	d := newTestDiffer()
	first := snapshot(d.Diff(input()))
	require.NotEmpty(t, first)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, snapshot(d.Diff(input())), "run %d differs", i)
	}
}

func TestDiff_VoteConservation(t *testing.T) {
	r := newTestDiffer().Diff(map[string]*annotation.Collection{
		"alice": coll("a",
			span("ne", 0, 4, "value", "PER"),
			span("ne", 0, 4, "value", "PER"),
		),
		"bob": coll("b",
			span("ne", 0, 4, "value", "PER"),
			span("ne", 0, 4, "value", "LOC"),
		),
		"carol": coll("c", span("ne", 0, 4, "value", "LOC")),
	})

	require.Equal(t, 1, r.Len())
	set := r.ConfigurationSets()[0]
	require.Equal(t, 2, set.Len())

	per, ok := set.Configuration(Value{Labels: `value="PER"`})
	require.True(t, ok)
	assert.Equal(t, 2, per.Votes(), "alice's duplicate counts once")
	assert.Len(t, per.AIDs("alice"), 2, "both of alice's identical annotations are kept as references")

	loc, ok := set.Configuration(Value{Labels: `value="LOC"`})
	require.True(t, ok)
	assert.Equal(t, []string{"bob", "carol"}, loc.Annotators())

	assert.True(t, per.Has("bob") && loc.Has("bob"), "stacked annotations put bob in two configurations")

	// Distinct (annotator, value) contributions: alice/PER, bob/PER, bob/LOC, carol/LOC.
	assert.Equal(t, 4, set.Votes())
	for _, c := range set.Configurations() {
		seen := map[string]bool{}
		for _, a := range c.Annotators() {
			assert.False(t, seen[a])
			seen[a] = true
		}
	}
}

func TestDiff_MalformedAnnotationsAreSkipped(t *testing.T) {
	bad := withLinks(span("event", 5, 8, "value", "meet"), "args", annotation.Link{Role: "agent", Target: 42})
	r := newTestDiffer().Diff(map[string]*annotation.Collection{
		"alice": coll("a",
			span("ne", 4, 0, "value", "PER"),
			span("ne", 17, 99, "value", "LOC"),
			bad,
			span("ne", 9, 13, "value", "PER"),
			relation("dep", 3, 7, "label", "obj"),
		),
		"bob": coll("b", span("ne", 9, 13, "value", "PER")),
	})

	diags := r.Diagnostics()
	require.Len(t, diags, 4)
	for _, d := range diags {
		assert.Equal(t, "alice", d.Annotator)
		assert.Equal(t, "a", d.CasID)
	}
	reasons := []string{diags[0].Reason, diags[1].Reason, diags[2].Reason, diags[3].Reason}
	assert.Contains(t, reasons[0], "out of range", "relation is scanned first by type")
	assert.Contains(t, reasons[1], "target 42 out of range")
	assert.Contains(t, reasons[2], "after end")
	assert.Contains(t, reasons[3], "beyond document length")

	require.Equal(t, 1, r.Len(), "the valid annotation is still diffed")
	assert.True(t, r.ConfigurationSets()[0].IsAgreement())
}

func TestDiff_Relations(t *testing.T) {
	tokens := func(kv ...string) *annotation.Collection {
		return coll("x",
			span("tok", 0, 4),
			span("tok", 5, 8),
			relation("dep", 0, 1, kv...),
		)
	}
	r := newTestDiffer().Diff(map[string]*annotation.Collection{
		"alice": tokens("label", "nsubj"),
		"bob":   tokens("label", "nsubj"),
		"carol": tokens("label", "dobj"),
	})

	require.Equal(t, 1, r.Len(), "tok has no layer and is out of scope")
	set := r.ConfigurationSets()[0]
	assert.Equal(t, layer.KindRelation, set.Position().Kind)
	assert.Equal(t, 5, set.Position().Begin)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, 2, set.Configurations()[0].Votes())
}

func TestDiff_LinkFeatures(t *testing.T) {
	meet := func(target int) annotation.Annotation {
		return withLinks(span("event", 5, 8, "value", "meet"), "args", annotation.Link{Role: "agent", Target: target})
	}
	input := map[string]*annotation.Collection{
		"alice": coll("a", span("ne", 0, 4, "value", "PER"), span("ne", 9, 13, "value", "PER"), meet(0)),
		"bob":   coll("b", span("ne", 0, 4, "value", "PER"), span("ne", 9, 13, "value", "PER"), meet(1)),
	}

	r := newTestDiffer().Diff(input)
	var links []*ConfigurationSet
	for _, s := range r.ForType("event") {
		if s.Position().IsLink() {
			links = append(links, s)
		}
	}
	require.Len(t, links, 1, "target-as-label: one position per role")
	assert.Equal(t, "agent", links[0].Position().Role)
	require.Equal(t, 2, links[0].Len(), "alice and bob chose different agents")

	r = newTestDiffer(WithLinkBehaviors(layer.LinkRoleAsLabel)).Diff(input)
	links = links[:0]
	for _, s := range r.ForType("event") {
		if s.Position().IsLink() {
			links = append(links, s)
		}
	}
	assert.Len(t, links, 3, "role-as-label adds one position per target")
}

func TestDiff_ResolveRoundTrip(t *testing.T) {
	input := map[string]*annotation.Collection{
		"alice": coll("a",
			span("ne", 0, 4, "value", "PER"),
			withLinks(span("event", 5, 8, "value", "meet"), "args",
				annotation.Link{Role: "agent", Target: 0},
				annotation.Link{Role: "patient", Target: 2}),
			span("ne", 9, 13, "value", "PER"),
		),
		"bob": coll("b",
			span("ne", 9, 13, "value", "ORG"),
			span("ne", 0, 4, "value", "PER"),
			withLinks(span("event", 5, 8, "value", "greet"), "args",
				annotation.Link{Role: "agent", Target: 1}),
		),
	}
	r := newTestDiffer().Diff(input)
	adapters := map[string]Adapter{"ne": NewAdapter(neLayer), "event": NewAdapter(eventLayer)}

	for _, set := range r.ConfigurationSets() {
		adapter := adapters[set.Position().Type]
		for _, cfg := range set.Configurations() {
			for _, name := range cfg.Annotators() {
				for _, aid := range cfg.AIDs(name) {
					ann, ok := r.Resolve(aid)
					require.True(t, ok, aid.String())

					var slot *LinkSlot
					if aid.Feature != "" {
						link, ok := r.ResolveLink(aid)
						require.True(t, ok)
						c, _ := r.Collection(name)
						slot = adapter.Slot(c, aid.Feature, link, set.Position().LinkCompare)
					}
					assert.Equal(t, cfg.Value(), adapter.Value(ann, slot), "%s at %s", aid, set.Position())
				}
			}
		}
	}

	_, ok := r.Resolve(AID{Annotator: "nobody"})
	assert.False(t, ok)
	_, ok = r.ResolveLink(AID{Annotator: "alice", Index: 0, Slot: -1})
	assert.False(t, ok)
}

func TestNew_RejectsInvalidLayers(t *testing.T) {
	_, err := New([]layer.Layer{{Type: "event", LinkFeatures: []string{"args"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, layer.ErrInvalidLayer)
	assert.Contains(t, err.Error(), "linkCompare")

	_, err = New([]layer.Layer{neLayer, depLayer, neLayer})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ne" defined twice`)

	_, err = New([]layer.Layer{neLayer, eventLayer})
	require.NoError(t, err)

	assert.Panics(t, func() {
		MustNew([]layer.Layer{{Type: "event", LinkFeatures: []string{"args"}}})
	})
}

// longDocument builds n twelve-character tokens, each one covered by a span
// in every annotator. The text mixes in multi-byte characters so character
// and byte offsets diverge.
func longDocument(n int, annotators ...string) map[string]*annotation.Collection {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Zü%08d  ", i)
	}
	text := b.String()

	colls := make(map[string]*annotation.Collection, len(annotators))
	for _, name := range annotators {
		anns := make([]annotation.Annotation, n)
		for i := range anns {
			anns[i] = span("ne", i*12, i*12+10, "value", "PER")
		}
		colls[name] = &annotation.Collection{
			CasID:       name,
			Document:    &annotation.Document{Collection: "news", Name: "long", Text: text},
			Annotations: anns,
		}
	}
	return colls
}

func TestDiff_LongDocument(t *testing.T) {
	const n = 16000
	colls := longDocument(n, "alice", "bob", "carol")
	d := newTestDiffer()

	start := time.Now()
	r := d.Diff(colls)
	elapsed := time.Since(start)

	require.Equal(t, n, r.Len())
	assert.Empty(t, r.Diagnostics())
	assert.True(t, r.IsAgreement())

	sets := r.ConfigurationSets()
	assert.Equal(t, "Zü00000000", sets[0].Position().Text)
	last := sets[n-1].Position()
	assert.Equal(t, (n-1)*12, last.Begin)
	assert.Equal(t, fmt.Sprintf("Zü%08d", n-1), last.Text)

	// Covered text is sliced from a per-collection index, so the diff grows
	// with the document instead of with its square.
	assert.Less(t, elapsed, 10*time.Second)
}

func BenchmarkDiff_LongDocument(b *testing.B) {
	for _, n := range []int{1000, 4000, 16000} {
		colls := longDocument(n, "alice", "bob", "carol")
		d := newTestDiffer()
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				d.Diff(colls)
			}
		})
	}
}

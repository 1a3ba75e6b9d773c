package diff

import (
	"slices"
	"testing"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_EqualityIgnoresProvenance(t *testing.T) {
	ne := NewAdapter(layer.Layer{Type: "ne", LabelFeatures: []string{"value"}})

	c1 := &annotation.Collection{
		CasID:    "cas-1",
		Document: &annotation.Document{Collection: "proj-a", Name: "doc-1", Text: sentence},
	}
	c2 := &annotation.Collection{CasID: "cas-2"}

	ann := span("ne", 0, 4, "value", "PER")
	p1 := ne.Position(c1.CasID, c1, ann, nil)
	p2 := ne.Position(c2.CasID, c2, ann, nil)

	assert.NotEqual(t, p1.CasID, p2.CasID)
	assert.Equal(t, "doc-1", p1.Document)
	assert.Equal(t, "", p2.Document, "missing metadata is tolerated")
	assert.Equal(t, "John", p1.Text)

	assert.True(t, p1.Equal(p2))
	assert.Equal(t, p1.Key(), p2.Key())
	assert.Equal(t, 0, Compare(p1, p2))
	assert.Equal(t, p1.ID(), p2.ID())
}

func TestPosition_DifferentOffsetsOrTypesDiffer(t *testing.T) {
	ne := NewAdapter(layer.Layer{Type: "ne"})
	pos := NewAdapter(layer.Layer{Type: "pos"})
	c := &annotation.Collection{CasID: "x"}

	base := ne.Position("x", c, span("ne", 0, 4), nil)
	assert.False(t, base.Equal(ne.Position("x", c, span("ne", 0, 5), nil)))
	assert.False(t, base.Equal(pos.Position("x", c, span("pos", 0, 4), nil)))
}

func TestPosition_LinkKeyDependsOnBehavior(t *testing.T) {
	ev := NewAdapter(layer.Layer{Type: "event", LinkFeatures: []string{"args"}, LinkCompare: layer.LinkTargetAsLabel})
	c := &annotation.Collection{CasID: "x"}
	host := span("event", 5, 8)

	agentJohn := &LinkSlot{Feature: "args", Role: "agent", TargetBegin: 0, TargetEnd: 4, Behavior: layer.LinkTargetAsLabel}
	agentMary := &LinkSlot{Feature: "args", Role: "agent", TargetBegin: 9, TargetEnd: 13, Behavior: layer.LinkTargetAsLabel}
	assert.True(t,
		ev.Position("x", c, host, agentJohn).Equal(ev.Position("x", c, host, agentMary)),
		"target-as-label keeps the role in the position and lets the target vary")
	assert.NotEqual(t, ev.Value(host, agentJohn), ev.Value(host, agentMary))

	agentJohnRole := &LinkSlot{Feature: "args", Role: "agent", TargetBegin: 0, TargetEnd: 4, Behavior: layer.LinkRoleAsLabel}
	patientJohnRole := &LinkSlot{Feature: "args", Role: "patient", TargetBegin: 0, TargetEnd: 4, Behavior: layer.LinkRoleAsLabel}
	assert.True(t,
		ev.Position("x", c, host, agentJohnRole).Equal(ev.Position("x", c, host, patientJohnRole)),
		"role-as-label keeps the target in the position and lets the role vary")
	assert.Equal(t, Value{Role: "patient"}, ev.Value(host, patientJohnRole))

	assert.False(t,
		ev.Position("x", c, host, agentJohn).Equal(ev.Position("x", c, host, agentJohnRole)),
		"the same filler under different behaviours is a different position")
	assert.False(t, ev.Position("x", c, host, nil).Equal(ev.Position("x", c, host, agentJohn)))
}

func TestPosition_RelationAnchors(t *testing.T) {
	dep := NewAdapter(layer.Layer{Type: "dep", Kind: layer.KindRelation, LabelFeatures: []string{"label"}})
	c := &annotation.Collection{
		CasID:    "x",
		Document: &annotation.Document{Text: sentence},
		Annotations: []annotation.Annotation{
			span("tok", 0, 4),
			span("tok", 5, 8),
		},
	}
	rel := relation("dep", 0, 1, "label", "nsubj")
	p := dep.Position("x", c, rel, nil)

	assert.Equal(t, layer.KindRelation, p.Kind)
	assert.Equal(t, 0, p.SourceBegin)
	assert.Equal(t, 4, p.SourceEnd)
	assert.Equal(t, 5, p.TargetBegin)
	assert.Equal(t, 8, p.TargetEnd)
	assert.Equal(t, "met", p.TargetText)
	assert.Contains(t, p.String(), "Relation [dep]")
}

func TestCompare_Order(t *testing.T) {
	positions := []Position{
		{Type: "b", Begin: 0, End: 1},
		{Type: "a", Begin: 3, End: 4},
		{Type: "a", Begin: 0, End: 2},
		{Type: "a", Begin: 0, End: 5},
		{Type: "a", Begin: 0, End: 5, Feature: "args", Role: "agent", LinkCompare: layer.LinkTargetAsLabel},
	}
	slices.SortFunc(positions, Compare)

	require.Len(t, positions, 5)
	assert.Equal(t, Position{Type: "a", Begin: 0, End: 5}, positions[0], "longer span first at equal begin")
	assert.Equal(t, "args", positions[1].Feature)
	assert.Equal(t, 2, positions[2].End)
	assert.Equal(t, 3, positions[3].Begin)
	assert.Equal(t, "b", positions[4].Type)
}

func TestValue_LabelsEncodeAllFeatures(t *testing.T) {
	a := NewAdapter(layer.Layer{Type: "pos", LabelFeatures: []string{"coarse", "fine"}})

	v1 := a.Value(span("pos", 0, 1, "coarse", "N", "fine", "NN"), nil)
	v2 := a.Value(span("pos", 0, 1, "coarse", "N", "fine", "NNS"), nil)
	v3 := a.Value(span("pos", 0, 1, "coarse", "N"), nil)
	v4 := a.Value(span("pos", 0, 1, "coarse", "N", "fine", ""), nil)

	assert.NotEqual(t, v1, v2)
	assert.NotEqual(t, v3, v4, "unset and empty feature values are distinct")
	assert.Equal(t, `coarse="N",fine="NN"`, v1.String())
}

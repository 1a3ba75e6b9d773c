package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/layer"
)

// LinkSlot describes one slot filler when a link feature, rather than the
// whole annotation, is compared.
type LinkSlot struct {
	Feature     string
	Role        string
	TargetBegin int
	TargetEnd   int
	TargetText  string
	Behavior    layer.LinkCompareBehavior
}

// Value is the comparable content observed at a position. Labels holds the
// encoded label feature tuple for whole annotations; for link positions
// exactly one of Role or the target offsets is populated, depending on the
// compare behaviour.
type Value struct {
	Labels      string
	Role        string
	TargetBegin int
	TargetEnd   int
	HasTarget   bool
}

func (v Value) String() string {
	switch {
	case v.HasTarget:
		return fmt.Sprintf("@%d-%d", v.TargetBegin, v.TargetEnd)
	case v.Role != "":
		return "role=" + v.Role
	default:
		return v.Labels
	}
}

// Adapter derives positions and values for one annotation type. It is a
// closed variant over layer.Kind; the label features come from the layer
// definition.
type Adapter struct {
	layer layer.Layer
}

// NewAdapter returns the adapter for l.
func NewAdapter(l layer.Layer) Adapter {
	return Adapter{layer: l}
}

// Layer returns the layer definition backing the adapter.
func (a Adapter) Layer() layer.Layer {
	return a.layer
}

// Type returns the annotation type name.
func (a Adapter) Type() string {
	return a.layer.Type
}

// source is a collection together with its indexed text, built once per
// collection in a Diff call.
type source struct {
	coll *annotation.Collection
	text *annotation.Text
}

func newSource(coll *annotation.Collection) source {
	return source{coll: coll, text: coll.Text()}
}

// Position derives the position of ann, or of one of its slot fillers when
// slot is non-nil. It is a pure function; missing document metadata leaves
// the diagnostic fields empty.
func (a Adapter) Position(casID string, coll *annotation.Collection, ann annotation.Annotation, slot *LinkSlot) Position {
	return a.position(casID, newSource(coll), ann, slot)
}

func (a Adapter) position(casID string, src source, ann annotation.Annotation, slot *LinkSlot) Position {
	coll := src.coll
	p := Position{
		CasID:      casID,
		Collection: coll.CollectionName(),
		Document:   coll.DocumentName(),
		Kind:       a.layer.Shape(),
		Type:       a.layer.Type,
		Begin:      ann.Begin,
		End:        ann.End,
		Text:       src.text.Covered(ann),
	}

	if a.layer.Shape() == layer.KindRelation {
		if ann.Source != nil {
			if from, ok := coll.At(*ann.Source); ok {
				p.SourceBegin, p.SourceEnd = from.Begin, from.End
				p.SourceText = src.text.Covered(from)
			}
		}
		if ann.Target != nil {
			if tgt, ok := coll.At(*ann.Target); ok {
				p.TargetBegin, p.TargetEnd = tgt.Begin, tgt.End
				p.TargetText = src.text.Covered(tgt)
				p.Begin, p.End, p.Text = tgt.Begin, tgt.End, p.TargetText
			}
		}
	}

	if slot != nil {
		p.Feature = slot.Feature
		p.Role = slot.Role
		p.LinkTargetBegin = slot.TargetBegin
		p.LinkTargetEnd = slot.TargetEnd
		p.LinkTargetText = slot.TargetText
		p.LinkCompare = slot.Behavior
	}
	return p
}

// Value derives the compared content of ann, or of the slot filler.
func (a Adapter) Value(ann annotation.Annotation, slot *LinkSlot) Value {
	if slot != nil {
		if slot.Behavior == layer.LinkRoleAsLabel {
			return Value{Role: slot.Role}
		}
		return Value{TargetBegin: slot.TargetBegin, TargetEnd: slot.TargetEnd, HasTarget: true}
	}
	return Value{Labels: encodeLabels(a.layer.LabelFeatures, ann.Features)}
}

// Slot builds the LinkSlot for filler link of ann's feature under behavior.
// The link target must be a valid index into coll.
func (a Adapter) Slot(coll *annotation.Collection, feature string, link annotation.Link, behavior layer.LinkCompareBehavior) *LinkSlot {
	return a.slot(newSource(coll), feature, link, behavior)
}

func (a Adapter) slot(src source, feature string, link annotation.Link, behavior layer.LinkCompareBehavior) *LinkSlot {
	tgt, _ := src.coll.At(link.Target)
	return &LinkSlot{
		Feature:     feature,
		Role:        link.Role,
		TargetBegin: tgt.Begin,
		TargetEnd:   tgt.End,
		TargetText:  src.text.Covered(tgt),
		Behavior:    behavior,
	}
}

// encodeLabels renders the label features in declaration order as
// name=value pairs with quoted values, so distinct tuples never collide.
func encodeLabels(names []string, features map[string]string) string {
	if len(names) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(n)
		sb.WriteByte('=')
		if v, ok := features[n]; ok {
			sb.WriteString(strconv.Quote(v))
		} else {
			sb.WriteString("<nil>")
		}
	}
	return sb.String()
}

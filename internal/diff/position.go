package diff

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/dusk-indust/curate/internal/layer"
)

// Position identifies a comparable annotation slot independently of the
// annotator that produced it. CasID, Collection, Document and the text fields
// are diagnostic only and never affect equality or ordering.
type Position struct {
	CasID      string
	Collection string
	Document   string

	Kind  layer.Kind
	Type  string
	Begin int
	End   int
	Text  string

	// Relation anchors; zero for spans.
	SourceBegin int
	SourceEnd   int
	SourceText  string
	TargetBegin int
	TargetEnd   int
	TargetText  string

	// Link slot; Feature is empty when the whole annotation is compared.
	Feature         string
	Role            string
	LinkTargetBegin int
	LinkTargetEnd   int
	LinkTargetText  string
	LinkCompare     layer.LinkCompareBehavior
}

// Key is the comparable identity of a Position. Two positions are equal if
// and only if their keys are equal.
type Key struct {
	Kind            layer.Kind
	Type            string
	Begin           int
	End             int
	SourceBegin     int
	SourceEnd       int
	TargetBegin     int
	TargetEnd       int
	Feature         string
	Role            string
	LinkTargetBegin int
	LinkTargetEnd   int
	LinkCompare     layer.LinkCompareBehavior
}

// Key returns the identity of p. For link positions only the part of the
// filler that is not the compared value enters the key: the role under
// LinkTargetAsLabel, the target offsets under LinkRoleAsLabel.
func (p Position) Key() Key {
	k := Key{
		Kind:        p.Kind,
		Type:        p.Type,
		Begin:       p.Begin,
		End:         p.End,
		SourceBegin: p.SourceBegin,
		SourceEnd:   p.SourceEnd,
		TargetBegin: p.TargetBegin,
		TargetEnd:   p.TargetEnd,
	}
	if p.Feature == "" {
		return k
	}
	k.Feature = p.Feature
	k.LinkCompare = p.LinkCompare
	switch p.LinkCompare {
	case layer.LinkRoleAsLabel:
		k.LinkTargetBegin = p.LinkTargetBegin
		k.LinkTargetEnd = p.LinkTargetEnd
	default:
		k.Role = p.Role
	}
	return k
}

// Equal reports whether p and o denote the same slot.
func (p Position) Equal(o Position) bool {
	return p.Key() == o.Key()
}

// IsLink reports whether p compares a slot filler rather than a whole annotation.
func (p Position) IsLink() bool {
	return p.Feature != ""
}

// Compare orders positions by type, begin ascending, end descending, then
// feature and role. Remaining key fields break ties so the order is total.
func Compare(a, b Position) int {
	return compareKeys(a.Key(), b.Key())
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
		return c
	}
	if c := cmp.Compare(b.End, a.End); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Feature, b.Feature); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Role, b.Role); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LinkTargetBegin, b.LinkTargetBegin); c != 0 {
		return c
	}
	if c := cmp.Compare(b.LinkTargetEnd, a.LinkTargetEnd); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LinkCompare, b.LinkCompare); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceBegin, b.SourceBegin); c != 0 {
		return c
	}
	if c := cmp.Compare(b.SourceEnd, a.SourceEnd); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TargetBegin, b.TargetBegin); c != 0 {
		return c
	}
	return cmp.Compare(b.TargetEnd, a.TargetEnd)
}

// ID returns a stable textual form of the key, suitable as a storage identifier.
func (p Position) ID() string {
	k := p.Key()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%s:%d-%d", k.Kind, k.Type, k.Begin, k.End)
	if k.Kind == layer.KindRelation {
		fmt.Fprintf(&sb, ":%d-%d>%d-%d", k.SourceBegin, k.SourceEnd, k.TargetBegin, k.TargetEnd)
	}
	if k.Feature != "" {
		fmt.Fprintf(&sb, ":%s[%s]", k.Feature, k.LinkCompare)
		if k.LinkCompare == layer.LinkRoleAsLabel {
			fmt.Fprintf(&sb, "@%d-%d", k.LinkTargetBegin, k.LinkTargetEnd)
		} else {
			fmt.Fprintf(&sb, "=%q", k.Role)
		}
	}
	return sb.String()
}

func (p Position) String() string {
	var sb strings.Builder
	if p.Kind == layer.KindRelation {
		fmt.Fprintf(&sb, "Relation [%s] %d-%d [%s] -> %d-%d [%s]",
			p.Type, p.SourceBegin, p.SourceEnd, p.SourceText,
			p.TargetBegin, p.TargetEnd, p.TargetText)
	} else {
		fmt.Fprintf(&sb, "Span [%s] %d-%d [%s]", p.Type, p.Begin, p.End, p.Text)
	}
	if p.Feature != "" {
		switch p.LinkCompare {
		case layer.LinkRoleAsLabel:
			fmt.Fprintf(&sb, " -> %s@[%d-%d] [%s]", p.Feature, p.LinkTargetBegin, p.LinkTargetEnd, p.LinkTargetText)
		default:
			fmt.Fprintf(&sb, " -> %s=%s", p.Feature, p.Role)
		}
	}
	if p.CasID != "" {
		fmt.Fprintf(&sb, " (cas %s)", p.CasID)
	}
	return sb.String()
}

package layer

import (
	"errors"
	"fmt"
)

// Kind classifies the shape of annotations on a layer.
type Kind string

const (
	KindSpan     Kind = "span"
	KindRelation Kind = "relation"
)

// OverlapMode controls whether annotations of one layer may overlap or stack.
type OverlapMode string

const (
	// AnyOverlap allows partial overlap and exact stacking.
	AnyOverlap OverlapMode = "any-overlap"
	// NoOverlap allows neither.
	NoOverlap OverlapMode = "no-overlap"
	// OverlapOnly allows partial overlap but not two annotations at the same offsets.
	OverlapOnly OverlapMode = "overlap-only"
	// StackingOnly allows annotations at the same offsets but not partial overlap.
	StackingOnly OverlapMode = "stacking-only"
)

// AllowsStacking reports whether several annotations may share exact offsets.
func (m OverlapMode) AllowsStacking() bool {
	return m == AnyOverlap || m == StackingOnly || m == ""
}

// AllowsOverlap reports whether annotations may partially overlap.
func (m OverlapMode) AllowsOverlap() bool {
	return m == AnyOverlap || m == OverlapOnly || m == ""
}

// ParseOverlapMode converts a configuration string into an OverlapMode.
// The empty string maps to AnyOverlap.
func ParseOverlapMode(s string) (OverlapMode, error) {
	switch OverlapMode(s) {
	case "", AnyOverlap:
		return AnyOverlap, nil
	case NoOverlap, OverlapOnly, StackingOnly:
		return OverlapMode(s), nil
	default:
		return "", fmt.Errorf("layer: unknown overlap mode %q", s)
	}
}

// LinkCompareBehavior selects which part of a slot filler is the compared value.
type LinkCompareBehavior string

const (
	// LinkTargetAsLabel keeps the role in the position and compares the target.
	LinkTargetAsLabel LinkCompareBehavior = "target-as-label"
	// LinkRoleAsLabel keeps the target offsets in the position and compares the role.
	LinkRoleAsLabel LinkCompareBehavior = "role-as-label"
)

func (b LinkCompareBehavior) String() string {
	switch b {
	case LinkTargetAsLabel:
		return "target-as-label"
	case LinkRoleAsLabel:
		return "role-as-label"
	default:
		return "none"
	}
}

// ErrInvalidLayer is returned by Validate for unusable layer definitions.
var ErrInvalidLayer = errors.New("layer: invalid definition")

// Layer holds the per-type constraints the diff and merge steps consume.
type Layer struct {
	// Type is the annotation type name this layer covers.
	Type string `yaml:"type" json:"type"`

	// Kind is span or relation. Defaults to span.
	Kind Kind `yaml:"kind,omitempty" json:"kind,omitempty"`

	// LabelFeatures are the primitive features compared for equality.
	LabelFeatures []string `yaml:"labelFeatures,omitempty" json:"labelFeatures,omitempty"`

	// LinkFeatures are slot features compared per filler.
	LinkFeatures []string `yaml:"linkFeatures,omitempty" json:"linkFeatures,omitempty"`

	// LinkCompare is required whenever LinkFeatures is non-empty.
	LinkCompare LinkCompareBehavior `yaml:"linkCompare,omitempty" json:"linkCompare,omitempty"`

	// OverlapMode defaults to AnyOverlap.
	OverlapMode OverlapMode `yaml:"overlapMode,omitempty" json:"overlapMode,omitempty"`
}

// Shape returns the layer kind, defaulting to KindSpan.
func (l Layer) Shape() Kind {
	if l.Kind == "" {
		return KindSpan
	}
	return l.Kind
}

// Overlap returns the overlap mode, defaulting to AnyOverlap.
func (l Layer) Overlap() OverlapMode {
	if l.OverlapMode == "" {
		return AnyOverlap
	}
	return l.OverlapMode
}

// Validate checks that the layer can be used for diffing.
func (l Layer) Validate() error {
	if l.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidLayer)
	}
	switch l.Shape() {
	case KindSpan, KindRelation:
	default:
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidLayer, l.Type, l.Kind)
	}
	if _, err := ParseOverlapMode(string(l.OverlapMode)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidLayer, l.Type, err)
	}
	if len(l.LinkFeatures) > 0 {
		switch l.LinkCompare {
		case LinkTargetAsLabel, LinkRoleAsLabel:
		case "":
			return fmt.Errorf("%w: %s: linkCompare is required with link features", ErrInvalidLayer, l.Type)
		default:
			return fmt.Errorf("%w: %s: unknown linkCompare %q", ErrInvalidLayer, l.Type, l.LinkCompare)
		}
	}
	seen := make(map[string]bool, len(l.LabelFeatures)+len(l.LinkFeatures))
	for _, f := range append(append([]string(nil), l.LabelFeatures...), l.LinkFeatures...) {
		if seen[f] {
			return fmt.Errorf("%w: %s: feature %q listed twice", ErrInvalidLayer, l.Type, f)
		}
		seen[f] = true
	}
	return nil
}

// Index maps layers by type. Later duplicates replace earlier ones.
func Index(layers []Layer) map[string]Layer {
	out := make(map[string]Layer, len(layers))
	for _, l := range layers {
		out[l.Type] = l
	}
	return out
}

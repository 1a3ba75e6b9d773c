package annotation

import (
	"maps"
	"unicode/utf8"
)

// Document carries the metadata of the annotated document. Collection and
// Name are informational only and never take part in comparisons.
type Document struct {
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Link is one filler of a slot feature. Target indexes the annotation in the
// owning Collection.
type Link struct {
	Role   string `json:"role" yaml:"role"`
	Target int    `json:"target" yaml:"target"`
}

// Annotation is a single span or relation produced by one annotator.
// Source and Target are set for relations and index the owning Collection.
type Annotation struct {
	Type     string            `json:"type" yaml:"type"`
	Begin    int               `json:"begin" yaml:"begin"`
	End      int               `json:"end" yaml:"end"`
	Features map[string]string `json:"features,omitempty" yaml:"features,omitempty"`
	Links    map[string][]Link `json:"links,omitempty" yaml:"links,omitempty"`
	Source   *int              `json:"source,omitempty" yaml:"source,omitempty"`
	Target   *int              `json:"target,omitempty" yaml:"target,omitempty"`
}

// IsRelation reports whether the annotation connects two other annotations.
func (a Annotation) IsRelation() bool {
	return a.Source != nil || a.Target != nil
}

// Feature returns the value of the named primitive feature, or "" if unset.
func (a Annotation) Feature(name string) string {
	return a.Features[name]
}

// Clone returns a deep copy that shares no maps or slices with a.
func (a Annotation) Clone() Annotation {
	out := a
	out.Features = maps.Clone(a.Features)
	if a.Links != nil {
		out.Links = make(map[string][]Link, len(a.Links))
		for k, v := range a.Links {
			out.Links[k] = append([]Link(nil), v...)
		}
	}
	if a.Source != nil {
		s := *a.Source
		out.Source = &s
	}
	if a.Target != nil {
		t := *a.Target
		out.Target = &t
	}
	return out
}

// SameSpan reports whether a and b cover exactly the same offsets.
func SameSpan(a, b Annotation) bool {
	return a.Begin == b.Begin && a.End == b.End
}

// Overlaps reports whether a and b share at least one character. Two
// zero-width annotations at the same offset also overlap.
func Overlaps(a, b Annotation) bool {
	if SameSpan(a, b) {
		return true
	}
	return a.Begin < b.End && b.Begin < a.End
}

// Collection is one annotator's annotation store for one document.
type Collection struct {
	CasID       string       `json:"casId" yaml:"casId"`
	Document    *Document    `json:"document,omitempty" yaml:"document,omitempty"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
}

// Len returns the number of annotations in c. A nil collection is empty.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Annotations)
}

// At returns the annotation at index i.
func (c *Collection) At(i int) (Annotation, bool) {
	if c == nil || i < 0 || i >= len(c.Annotations) {
		return Annotation{}, false
	}
	return c.Annotations[i], true
}

// Add appends a and returns its index.
func (c *Collection) Add(a Annotation) int {
	c.Annotations = append(c.Annotations, a)
	return len(c.Annotations) - 1
}

// Bounds returns the length of the document text in characters. The second
// result is false when no text is attached, in which case offsets cannot be
// checked against the document. Each call scans the text; use Text when
// checking many annotations.
func (c *Collection) Bounds() (int, bool) {
	if c == nil || c.Document == nil || c.Document.Text == "" {
		return 0, false
	}
	return utf8.RuneCountInString(c.Document.Text), true
}

// CoveredText returns the text under a, or "" when the text is unavailable
// or the offsets fall outside it. Like Bounds it scans the text.
func (c *Collection) CoveredText(a Annotation) string {
	return c.Text().Covered(a)
}

// Find returns the indexes of annotations of the given type at exactly the
// given offsets, in collection order.
func (c *Collection) Find(typ string, begin, end int) []int {
	if c == nil {
		return nil
	}
	var out []int
	for i, a := range c.Annotations {
		if a.Type == typ && a.Begin == begin && a.End == end {
			out = append(out, i)
		}
	}
	return out
}

// OfType returns the indexes of all annotations of the given type.
func (c *Collection) OfType(typ string) []int {
	if c == nil {
		return nil
	}
	var out []int
	for i, a := range c.Annotations {
		if a.Type == typ {
			out = append(out, i)
		}
	}
	return out
}

// DocumentName returns the document name, tolerating missing metadata.
func (c *Collection) DocumentName() string {
	if c == nil || c.Document == nil {
		return ""
	}
	return c.Document.Name
}

// CollectionName returns the collection name, tolerating missing metadata.
func (c *Collection) CollectionName() string {
	if c == nil || c.Document == nil {
		return ""
	}
	return c.Document.Collection
}

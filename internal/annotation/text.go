package annotation

import "unicode/utf8"

// Text indexes a document text by character offset so that lengths and
// covered text are answered without rescanning the document. Build one per
// collection and reuse it for every annotation of that collection.
type Text struct {
	s       string
	offsets []int // byte offset of every rune, followed by len(s)
}

// NewText indexes s. The zero Text and the Text of "" have no bounds.
func NewText(s string) *Text {
	offsets := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return &Text{s: s, offsets: append(offsets, len(s))}
}

// Bounds returns the length of the text in characters, and false when
// there is no text to check offsets against.
func (t *Text) Bounds() (int, bool) {
	if t == nil || t.s == "" {
		return 0, false
	}
	return len(t.offsets) - 1, true
}

// Covered returns the text under a, or "" when the text is unavailable or
// the offsets fall outside it.
func (t *Text) Covered(a Annotation) string {
	n, ok := t.Bounds()
	if !ok || a.Begin < 0 || a.End > n || a.Begin > a.End {
		return ""
	}
	return t.s[t.offsets[a.Begin]:t.offsets[a.End]]
}

// Text indexes the document text of c. A collection without text yields
// an index without bounds.
func (c *Collection) Text() *Text {
	if c == nil || c.Document == nil {
		return NewText("")
	}
	return NewText(c.Document.Text)
}

package store

import (
	"context"
	"errors"

	"github.com/dusk-indust/curate/internal/annotation"
)

// ErrNotFound is returned when a document or curation does not exist.
var ErrNotFound = errors.New("store: not found")

// Store persists the per-annotator annotation collections of each document
// and the curated result. Implementations: FileStore (production),
// MemStore (testing). Returned collections are copies the caller may keep.
type Store interface {
	// ListDocuments returns document names in sorted order.
	ListDocuments(ctx context.Context) ([]string, error)

	// LoadAnnotations returns every annotator's collection for document.
	LoadAnnotations(ctx context.Context, document string) (map[string]*annotation.Collection, error)

	// SaveAnnotations stores one annotator's collection for document.
	SaveAnnotations(ctx context.Context, document, annotator string, coll *annotation.Collection) error

	// LoadCuration returns the curated collection for document.
	LoadCuration(ctx context.Context, document string) (*annotation.Collection, error)

	// SaveCuration stores the curated collection for document.
	SaveCuration(ctx context.Context, document string, coll *annotation.Collection) error
}

// cloneCollection deep-copies c so stored state is never shared with callers.
func cloneCollection(c *annotation.Collection) *annotation.Collection {
	if c == nil {
		return nil
	}
	out := &annotation.Collection{CasID: c.CasID}
	if c.Document != nil {
		doc := *c.Document
		out.Document = &doc
	}
	if c.Annotations != nil {
		out.Annotations = make([]annotation.Annotation, len(c.Annotations))
		for i, a := range c.Annotations {
			out.Annotations[i] = a.Clone()
		}
	}
	return out
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(casID string) *annotation.Collection {
	src, tgt := 0, 1
	return &annotation.Collection{
		CasID:    casID,
		Document: &annotation.Document{Collection: "news", Name: "doc-1", Text: "John met Mary"},
		Annotations: []annotation.Annotation{
			{Type: "ne", Begin: 0, End: 4, Features: map[string]string{"value": "PER"}},
			{Type: "ne", Begin: 9, End: 13, Features: map[string]string{"value": "PER"}},
			{Type: "dep", Begin: 9, End: 13, Source: &src, Target: &tgt},
			{Type: "event", Begin: 5, End: 8, Links: map[string][]annotation.Link{
				"args": {{Role: "agent", Target: 0}},
			}},
		},
	}
}

// storeContract exercises behaviour shared by every Store implementation.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = s.LoadAnnotations(ctx, "doc-1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.LoadCuration(ctx, "doc-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveAnnotations(ctx, "doc-1", "bob", sample("b")))
	require.NoError(t, s.SaveAnnotations(ctx, "doc-1", "alice", sample("a")))
	require.NoError(t, s.SaveAnnotations(ctx, "doc-0", "alice", sample("a")))

	docs, err = s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-0", "doc-1"}, docs)

	got, err := s.LoadAnnotations(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sample("a"), got["alice"])
	assert.Equal(t, sample("b"), got["bob"])

	got["alice"].Annotations[0].Features["value"] = "ORG"
	again, err := s.LoadAnnotations(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "PER", again["alice"].Annotations[0].Features["value"], "loaded collections are copies")

	curated := sample("curation")
	require.NoError(t, s.SaveCuration(ctx, "doc-1", curated))
	back, err := s.LoadCuration(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, curated, back)
}

func TestMemStore_Contract(t *testing.T) {
	storeContract(t, NewMemStore())
}

func TestFileStore_Contract(t *testing.T) {
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "data")))
}

func TestMemStore_RequiresNames(t *testing.T) {
	s := NewMemStore()
	require.Error(t, s.SaveAnnotations(context.Background(), "", "alice", sample("a")))
	require.Error(t, s.SaveCuration(context.Background(), "", sample("a")))
}

func TestFileStore_ReadsYAML(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "doc-1", "annotators")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	yamlDoc := `casId: carol
document:
  name: doc-1
  text: John met Mary
annotations:
  - type: ne
    begin: 0
    end: 4
    features:
      value: PER
  - type: event
    begin: 5
    end: 8
    links:
      args:
        - role: agent
          target: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carol.yaml"), []byte(yamlDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	s := NewFileStore(root)
	got, err := s.LoadAnnotations(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Contains(t, got, "carol")
	require.Len(t, got, 1)

	c := got["carol"]
	assert.Equal(t, "carol", c.CasID)
	require.Len(t, c.Annotations, 2)
	assert.Equal(t, "PER", c.Annotations[0].Feature("value"))
	assert.Equal(t, []annotation.Link{{Role: "agent", Target: 0}}, c.Annotations[1].Links["args"])
}

func TestFileStore_DuplicateAnnotatorFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "doc-1", "annotators")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), []byte(`{"casId":"a"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.yml"), []byte("casId: a\n"), 0o644))

	_, err := NewFileStore(root).LoadAnnotations(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one file")
}

func TestFileStore_DecodeError(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "doc-1", "annotators")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), []byte(`{not json`), 0o644))

	_, err := NewFileStore(root).LoadAnnotations(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFileStore_RejectsPathEscapes(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()
	require.Error(t, s.SaveAnnotations(ctx, "../evil", "alice", sample("a")))
	require.Error(t, s.SaveAnnotations(ctx, "doc", "a/b", sample("a")))
	require.Error(t, s.SaveCuration(ctx, "..", sample("a")))
}

// A sibling of the store root holding a valid document must stay out of
// reach of the loaders.
func TestFileStore_LoadersRejectPathEscapes(t *testing.T) {
	parent := t.TempDir()
	outside := NewFileStore(parent)
	ctx := context.Background()
	require.NoError(t, outside.SaveAnnotations(ctx, "x", "alice", sample("a")))
	require.NoError(t, outside.SaveCuration(ctx, "x", sample("c")))

	s := NewFileStore(filepath.Join(parent, "root"))
	for _, doc := range []string{"../x", "..", "", "a/b", `a\b`} {
		_, err := s.LoadAnnotations(ctx, doc)
		require.Error(t, err, doc)
		assert.NotErrorIs(t, err, ErrNotFound, doc)
		assert.Contains(t, err.Error(), "invalid name", doc)

		_, err = s.LoadCuration(ctx, doc)
		require.Error(t, err, doc)
		assert.Contains(t, err.Error(), "invalid name", doc)
	}
}

func TestFileStore_MissingRootIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	docs, err := s.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

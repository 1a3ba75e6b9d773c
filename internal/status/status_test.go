package status

import (
	"bytes"
	"context"
	"testing"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const text = "John met Mary in Paris"

func span(typ string, begin, end int, value string) annotation.Annotation {
	return annotation.Annotation{Type: typ, Begin: begin, End: end, Features: map[string]string{"value": value}}
}

func doc(casID string, anns ...annotation.Annotation) *annotation.Collection {
	return &annotation.Collection{CasID: casID, Document: &annotation.Document{Text: text}, Annotations: anns}
}

func newDiffer() *diff.Differ {
	return diff.MustNew([]layer.Layer{
		{Type: "ne", LabelFeatures: []string{"value"}},
		{Type: "pos", LabelFeatures: []string{"value"}},
	}, diff.WithoutLogging())
}

func TestSummarize(t *testing.T) {
	r := newDiffer().Diff(map[string]*annotation.Collection{
		"alice": doc("a", span("ne", 0, 4, "PER"), span("ne", 9, 13, "PER"), span("pos", 5, 8, "VERB"),
			span("ne", 30, 40, "LOC")),
		"bob": doc("b", span("ne", 0, 4, "PER"), span("ne", 9, 13, "LOC")),
	})

	ds := Summarize("doc-1", r)
	assert.Equal(t, "doc-1", ds.Document)
	assert.Equal(t, []string{"alice", "bob"}, ds.Annotators)
	assert.Equal(t, 3, ds.Positions)
	assert.Equal(t, 1, ds.Agreed)
	assert.Equal(t, 1, ds.Incomplete)
	assert.Equal(t, 1, ds.Disputed)
	assert.Equal(t, 1, ds.Diagnostics, "30-40 lies beyond the text")
	assert.Equal(t, []TypeSummary{
		{Type: "ne", Positions: 2, Agreed: 1, Disputed: 1},
		{Type: "pos", Positions: 1, Incomplete: 1},
	}, ds.Types)
	assert.InDelta(t, 1.0/3.0, ds.AgreementRate(), 1e-9)
}

func TestAgreementRate_Empty(t *testing.T) {
	assert.Equal(t, 1.0, DocumentStatus{}.AgreementRate())
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	require.NoError(t, st.SaveAnnotations(ctx, "doc-2", "alice", doc("a", span("ne", 0, 4, "PER"))))
	require.NoError(t, st.SaveAnnotations(ctx, "doc-1", "alice", doc("a", span("ne", 0, 4, "PER"))))
	require.NoError(t, st.SaveCuration(ctx, "doc-1", doc("curation", span("ne", 0, 4, "PER"))))

	statuses, err := ListDocuments(ctx, st, newDiffer())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "doc-1", statuses[0].Document)
	assert.True(t, statuses[0].Curated)
	assert.False(t, statuses[1].Curated)

	_, err = GetDocumentStatus(ctx, st, newDiffer(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, nil)
	assert.Contains(t, buf.String(), "No documents found.")

	buf.Reset()
	Print(&buf, []DocumentStatus{{
		Document:    "doc-1",
		Annotators:  []string{"alice", "bob"},
		Positions:   2,
		Agreed:      1,
		Disputed:    1,
		Diagnostics: 2,
		Curated:     true,
		Types:       []TypeSummary{{Type: "ne", Positions: 2, Agreed: 1, Disputed: 1}},
	}})
	out := buf.String()
	assert.Contains(t, out, "Document: doc-1  [curated]")
	assert.Contains(t, out, "annotators: 2  positions: 2  agreement: 50%")
	assert.Contains(t, out, "disputed    1")
	assert.Contains(t, out, "2 malformed annotation(s) skipped")
}

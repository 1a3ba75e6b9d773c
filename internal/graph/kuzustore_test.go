//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized schema.
// It registers a cleanup function to close the store when the test finishes.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.InitSchema(context.Background()), "InitSchema should not fail")
	return s
}

func TestKuzuStore_InitSchema(t *testing.T) {
	s, err := NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))
	// Second call is idempotent (IF NOT EXISTS).
	require.NoError(t, s.InitSchema(ctx))
}

func TestKuzuStore_Contract(t *testing.T) {
	storeContract(t, newTestStore(t))
}

func TestKuzuStore_RejectsDanglingNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.Error(t, s.AddConfiguration(ctx, ConfigurationNode{ID: "c", PositionID: "missing"}))
	require.Error(t, s.AddVote(ctx, Vote{Annotator: "alice", ConfigurationID: "missing"}))
}

func TestKuzuStore_PositionUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	node := PositionNode{ID: "d/p", Document: "d", Type: "ne", Status: StatusDisputed, Configurations: 2}
	require.NoError(t, s.AddPosition(ctx, node))
	node.Resolved = true
	require.NoError(t, s.AddPosition(ctx, node))

	got, err := s.GetPositions(ctx, "d")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Resolved)
	assert.Equal(t, 2, got[0].Configurations)
}

func TestKuzuStore_FilePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph", "agreement.kuzu")
	ctx := context.Background()

	s, err := NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, Record(ctx, s, "doc-1", sampleResult(), acceptMajority))
	require.NoError(t, s.Close())

	reopened, err := NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PositionCount)
	assert.Equal(t, 1, stats.DisputedCount)
}

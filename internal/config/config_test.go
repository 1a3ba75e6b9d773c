package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `dataDir: data
graphPath: .curate/graph
workers: 8
cacheSize: 128
verbose: true
strategy:
  name: threshold
  userThreshold: 2
  confidenceThreshold: 0.75
  topRanks: 1
layers:
  - type: ne
    labelFeatures: [value]
    overlapMode: no-overlap
  - type: dep
    kind: relation
    labelFeatures: [label]
  - type: event
    labelFeatures: [value]
    linkFeatures: [args]
    linkCompare: target-as-label
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curate.yml"), []byte(sample), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, ".curate", "graph"), cfg.GraphPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, merge.Traits{Name: merge.NameThreshold, UserThreshold: 2, ConfidenceThreshold: 0.75, TopRanks: 1}, cfg.Strategy)

	require.Len(t, cfg.Layers, 3)
	assert.Equal(t, layer.NoOverlap, cfg.Layers[0].OverlapMode)
	assert.Equal(t, layer.KindRelation, cfg.Layers[1].Kind)
	assert.Equal(t, layer.LinkTargetAsLabel, cfg.Layers[2].LinkCompare)
	assert.Equal(t, []string{"args"}, cfg.Layers[2].LinkFeatures)

	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curate.yaml"), []byte("dataDir: /abs/data\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/abs/data", cfg.DataDir)
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curate.yml"), []byte("layers: [unclosed"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curate.yml")
}

func TestValidate(t *testing.T) {
	ne := layer.Layer{Type: "ne", LabelFeatures: []string{"value"}}

	tests := []struct {
		name    string
		cfg     ProjectConfig
		wantErr string
	}{
		{"no layers", ProjectConfig{}, "no layers"},
		{"duplicate layer", ProjectConfig{Layers: []layer.Layer{ne, ne}}, "defined twice"},
		{"invalid layer", ProjectConfig{Layers: []layer.Layer{{Type: "x", LinkFeatures: []string{"a"}}}}, "linkCompare"},
		{"negative workers", ProjectConfig{Layers: []layer.Layer{ne}, Workers: -1}, "workers"},
		{"negative cache", ProjectConfig{Layers: []layer.Layer{ne}, CacheSize: -1}, "cacheSize"},
		{"bad threshold", ProjectConfig{Layers: []layer.Layer{ne}, Strategy: merge.Traits{Name: merge.NameThreshold, ConfidenceThreshold: 2, TopRanks: 1}}, "threshold"},
		{"unknown strategy", ProjectConfig{Layers: []layer.Layer{ne}, Strategy: merge.Traits{Name: "vote"}}, "unknown"},
		{"ok", ProjectConfig{Layers: []layer.Layer{ne}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

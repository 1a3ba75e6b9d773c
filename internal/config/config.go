package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
)

// FileNames are the project config files Load looks for, in order.
var FileNames = []string{"curate.yml", "curate.yaml"}

// ProjectConfig holds project-level settings loaded from curate.yml.
type ProjectConfig struct {
	DataDir   string        `yaml:"dataDir,omitempty"`
	GraphPath string        `yaml:"graphPath,omitempty"`
	Workers   int           `yaml:"workers,omitempty"`
	CacheSize int           `yaml:"cacheSize,omitempty"`
	Layers    []layer.Layer `yaml:"layers,omitempty"`
	Strategy  merge.Traits  `yaml:"strategy,omitempty"`
	Verbose   bool          `yaml:"verbose,omitempty"`
}

// Load attempts to read curate.yml or curate.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
// Relative DataDir and GraphPath are resolved against dir.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		cfg.resolve(dir)
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

func (c *ProjectConfig) resolve(dir string) {
	if c.DataDir != "" && !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(dir, c.DataDir)
	}
	if c.GraphPath != "" && !filepath.IsAbs(c.GraphPath) {
		c.GraphPath = filepath.Join(dir, c.GraphPath)
	}
}

// Validate checks the layers and builds the strategy once so that a bad
// config fails before any document is read.
func (c *ProjectConfig) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("config: no layers defined")
	}
	seen := make(map[string]bool, len(c.Layers))
	for _, l := range c.Layers {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if seen[l.Type] {
			return fmt.Errorf("config: layer %q defined twice", l.Type)
		}
		seen[l.Type] = true
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config: cacheSize must be >= 0, got %d", c.CacheSize)
	}
	if _, err := merge.NewRegistry().Build(c.Strategy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

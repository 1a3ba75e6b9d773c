package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/curate/internal/annotation"
)

// Compile-time assertion: *FileStore satisfies Store.
var _ Store = (*FileStore)(nil)

const (
	annotatorsDir = "annotators"
	curationFile  = "curation.json"
)

// FileStore implements Store on a directory tree:
//
//	<root>/<document>/annotators/<annotator>.json|.yaml|.yml
//	<root>/<document>/curation.json
//
// Annotator files may be JSON or YAML; FileStore always writes JSON.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

// ListDocuments returns the document directories that contain an annotators
// directory.
func (s *FileStore) ListDocuments(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, e.Name(), annotatorsDir))
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// LoadAnnotations reads every annotator file of document.
func (s *FileStore) LoadAnnotations(ctx context.Context, document string) (map[string]*annotation.Collection, error) {
	if err := checkName(document); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, document, annotatorsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: document %q", ErrNotFound, document)
		}
		return nil, fmt.Errorf("store: read %s: %w", dir, err)
	}

	out := make(map[string]*annotation.Collection)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		switch ext {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("store: document %q: annotator %q has more than one file", document, name)
		}
		coll, err := readCollection(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[name] = coll
	}
	return out, nil
}

// SaveAnnotations writes coll as <annotator>.json.
func (s *FileStore) SaveAnnotations(_ context.Context, document, annotator string, coll *annotation.Collection) error {
	if err := checkName(document); err != nil {
		return err
	}
	if err := checkName(annotator); err != nil {
		return err
	}
	path := filepath.Join(s.root, document, annotatorsDir, annotator+".json")
	return writeJSON(path, coll)
}

// LoadCuration reads curation.json of document.
func (s *FileStore) LoadCuration(_ context.Context, document string) (*annotation.Collection, error) {
	if err := checkName(document); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, document, curationFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: curation %q", ErrNotFound, document)
	}
	return readCollection(path)
}

// SaveCuration writes curation.json of document.
func (s *FileStore) SaveCuration(_ context.Context, document string, coll *annotation.Collection) error {
	if err := checkName(document); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.root, document, curationFile), coll)
}

// checkName rejects names that would escape the store directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("store: invalid name %q", name)
	}
	return nil
}

func readCollection(path string) (*annotation.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var coll annotation.Collection
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &coll)
	default:
		err = json.Unmarshal(data, &coll)
	}
	if err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return &coll, nil
}

// writeJSON writes v to path through a temporary file and rename so readers
// never observe a partial file.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: rename %s: %w", path, err)
	}
	return nil
}

// Package scaffold embeds the starter project written by "curate init":
// a curate.yml and an example document annotated by three annotators.
// The embedded filesystem is rooted at "templates/".
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TemplateFS contains the embedded project files. Walk from "templates"
// to iterate over all files.
//
//go:embed all:templates
var TemplateFS embed.FS

const root = "templates"

// Result reports what Install did with one file.
type Result struct {
	Path    string // relative to the target directory
	Written bool   // false when an existing file was kept
}

// Install copies the embedded project into dir. Existing files are kept
// unless force is set.
func Install(dir string, force bool) ([]Result, error) {
	var results []Result
	err := fs.WalkDir(TemplateFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		if !force {
			if _, err := os.Stat(dest); err == nil {
				results = append(results, Result{Path: rel})
				return nil
			}
		}

		data, err := TemplateFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		results = append(results, Result{Path: rel, Written: true})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/siliconalloy/alloy/internal/issue"
)

// Catalog reads recipes from one directory. Nothing is cached: every call
// rescans the directory so edits take effect immediately.
type Catalog struct {
	dir string
}

// NewCatalog returns a catalog over dir, which need not exist.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir is the scanned directory.
func (c *Catalog) Dir() string { return c.dir }

// LoadAll returns every recipe sorted by name (then id). Recipes are
// <dir>/<name>/recipe.yaml or <dir>/<name>.yaml. A missing directory is
// empty; any malformed manifest fails the whole call with
// issue.ErrInvalidInput naming the file.
func (c *Catalog) LoadAll() ([]Recipe, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Recipe{}, nil
		}
		return nil, issue.IO("read recipe directory", err)
	}

	recipes := make([]Recipe, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(c.dir, entry.Name())
		if entry.IsDir() {
			path = filepath.Join(path, ManifestFile)
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				continue
			}
		} else if filepath.Ext(entry.Name()) != ManifestExt {
			continue
		}

		r, err := Load(path)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}

	slices.SortFunc(recipes, func(a, b Recipe) int {
		return cmp.Or(cmp.Compare(a.Manifest.Name, b.Manifest.Name), cmp.Compare(a.Manifest.ID, b.Manifest.ID))
	})
	return recipes, nil
}

// Find returns the recipe whose manifest id is id. When several manifests
// share an id the first in LoadAll order wins.
func (c *Catalog) Find(id string) (Recipe, error) {
	recipes, err := c.LoadAll()
	if err != nil {
		return Recipe{}, err
	}
	for _, r := range recipes {
		if r.Manifest.ID == id {
			return r, nil
		}
	}
	return Recipe{}, issue.NotFound("recipe", id)
}

// Summaries lists id, name and description of every recipe, sorted by name.
func (c *Catalog) Summaries() ([]Summary, error) {
	recipes, err := c.LoadAll()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(recipes))
	for i, r := range recipes {
		out[i] = r.Summary()
	}
	return out, nil
}

// Load reads and normalizes one manifest file.
func Load(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Recipe{}, issue.NotFound("recipe manifest", path)
		}
		return Recipe{}, issue.IO("read recipe manifest", err)
	}

	m, err := Parse(data, path)
	if err != nil {
		return Recipe{}, issue.Wrap(issue.ErrInvalidInput, "invalid recipe", err)
	}
	return Recipe{Manifest: m, BaseDir: filepath.Dir(path), Source: path}, nil
}

// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"path/filepath"
)

const (
	// ManifestFile is the manifest name inside a recipe directory.
	ManifestFile = "recipe.yaml"
	// ManifestExt marks standalone manifests at the top of the recipe directory.
	ManifestExt = ".yaml"
	// ResourcesDir holds files referenced by relative Run and Copy paths.
	ResourcesDir = "resources"
)

type (
	// Manifest is a normalized recipe document.
	Manifest struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Steps       []Step `json:"steps"`
	}

	// Recipe is a manifest together with where it was loaded from.
	Recipe struct {
		Manifest Manifest `json:"manifest"`
		// BaseDir is the directory containing the manifest file.
		BaseDir string `json:"base_dir"`
		// Source is the manifest file path.
		Source string `json:"source"`
	}

	// Summary is the listing form of a recipe.
	Summary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
)

// Resource resolves a path used by a Run or Copy step: absolute paths are
// returned unchanged, relative ones are joined under BaseDir/resources.
func (r Recipe) Resource(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.BaseDir, ResourcesDir, path)
}

// Summary returns the listing form of r.
func (r Recipe) Summary() Summary {
	return Summary{ID: r.Manifest.ID, Name: r.Manifest.Name, Description: r.Manifest.Description}
}

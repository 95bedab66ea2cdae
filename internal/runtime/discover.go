// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/siliconalloy/alloy/internal/issue"
)

const (
	// NotesFile is an optional TOML file inside a runtime directory that
	// annotates the descriptor.
	NotesFile = "runtime.toml"

	// OverrideEnvVar names the external input that supplies one extra runtime.
	OverrideEnvVar = "SILICON_ALLOY_ARM64_WINE64"
)

// notesFile is the shape of runtime.toml.
type notesFile struct {
	Notes string `toml:"notes"`
}

// Discover scans the immediate subdirectories of root for runtimes laid out
// as <root>/wine-<arch>-<version...>/bin/wine64. A missing root yields an
// empty list. Directories that do not match the pattern, or lack the
// executable, are skipped. The result is sorted by label.
func Discover(root string) ([]Descriptor, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Descriptor{}, nil
		}
		return nil, issue.IO("read runtime directory "+root, err)
	}

	found := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		desc, ok := describe(root, entry.Name())
		if ok {
			found = append(found, desc)
		}
	}

	slices.SortStableFunc(found, func(a, b Descriptor) int { return cmp.Compare(a.Label, b.Label) })
	return found, nil
}

func describe(root, name string) (Descriptor, bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 || parts[0] != DirTag {
		return Descriptor{}, false
	}
	arch := parts[1]
	version := strings.Join(parts[2:], "-")

	dir := filepath.Join(root, name)
	exe := filepath.Join(dir, "bin", ExecutableName)
	if _, err := os.Stat(exe); err != nil {
		return Descriptor{}, false
	}

	return Descriptor{
		Channel:    ChannelForArch(arch),
		Label:      DirTag + " " + arch + " " + version,
		Version:    version,
		Wine64Path: exe,
		Notes:      readNotes(dir),
	}, true
}

// readNotes returns the notes from runtime.toml. A malformed file is reported
// through the notes themselves rather than hiding the runtime.
func readNotes(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, NotesFile))
	if err != nil {
		return ""
	}
	var meta notesFile
	if err := toml.Unmarshal(data, &meta); err != nil {
		return "invalid " + NotesFile + ": " + err.Error()
	}
	return strings.TrimSpace(meta.Notes)
}

// Override builds the descriptor for an externally supplied executable. It
// reports false when path is empty or does not exist.
func Override(path string) (Descriptor, bool) {
	if path == "" {
		return Descriptor{}, false
	}
	if _, err := os.Stat(path); err != nil {
		return Descriptor{}, false
	}
	return Descriptor{
		Channel:    NativeARM64Channel,
		Label:      "wine arm64 (external)",
		Version:    "experimental",
		Wine64Path: path,
		Notes:      "provided via " + OverrideEnvVar,
	}, true
}

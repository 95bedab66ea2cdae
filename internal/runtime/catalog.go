// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"path/filepath"
	"slices"
)

// Catalog is an immutable snapshot of the runtimes available when it was
// built. It is never rescanned: a runtime installed later stays invisible
// until a new Catalog is loaded, which the daemon only does at startup.
// A Catalog is safe for concurrent use.
type Catalog struct {
	root    string
	entries []Descriptor
}

// NewCatalog wraps already discovered descriptors. root is the directory
// fallback paths are synthesized under.
func NewCatalog(root string, entries []Descriptor) *Catalog {
	return &Catalog{root: root, entries: slices.Clone(entries)}
}

// LoadCatalog discovers runtimes under root and appends the override
// runtime at extra when it exists.
func LoadCatalog(root, extra string) (*Catalog, error) {
	entries, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if desc, ok := Override(extra); ok {
		entries = append(entries, desc)
	}
	return &Catalog{root: root, entries: entries}, nil
}

// Root is the directory the catalog was discovered from; Select builds
// fallback runtime paths under it.
func (c *Catalog) Root() string {
	return c.root
}

// Descriptors returns a copy of the snapshot in catalog order.
func (c *Catalog) Descriptors() []Descriptor {
	return slices.Clone(c.entries)
}

// Len is the number of descriptors in the snapshot.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Select resolves criteria to a runtime. It never fails:
//
//  1. An explicit Path is used directly (label "custom wine <version>",
//     channel "custom", unless overridden).
//  2. Otherwise, within the requested channel (default "rossetta"), an exact
//     version match wins, then the first entry of that channel.
//  3. Otherwise a runtime is synthesized at
//     <root>/wine-x86_64-<version>/bin/wine64, whether or not it exists. The
//     launch is where a missing executable surfaces.
//
// A non-empty Label overrides the label in every case.
func (c *Catalog) Select(crit Criteria) WineRuntime {
	if crit.Path != "" {
		rt := WineRuntime{
			Label:      "custom wine " + crit.Version,
			Wine64Path: crit.Path,
			Version:    crit.Version,
			Channel:    CustomChannel,
		}
		if crit.Channel != "" {
			rt.Channel = crit.Channel
		}
		return withLabel(rt, crit.Label)
	}

	channel := crit.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	if i := slices.IndexFunc(c.entries, func(d Descriptor) bool {
		return d.Channel == channel && d.Version == crit.Version
	}); i >= 0 {
		return withLabel(c.entries[i].WineRuntime(), crit.Label)
	}
	if i := slices.IndexFunc(c.entries, func(d Descriptor) bool {
		return d.Channel == channel
	}); i >= 0 {
		return withLabel(c.entries[i].WineRuntime(), crit.Label)
	}

	return withLabel(WineRuntime{
		Label:      "wine " + crit.Version,
		Wine64Path: filepath.Join(c.root, DirTag+"-x86_64-"+crit.Version, "bin", ExecutableName),
		Version:    crit.Version,
		Channel:    channel,
	}, crit.Label)
}

func withLabel(rt WineRuntime, label string) WineRuntime {
	if label != "" {
		rt.Label = label
	}
	return rt
}

// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"path/filepath"
)

const (
	// DirTag is the literal first segment of a runtime directory name:
	// <DirTag>-<arch>-<version...>.
	DirTag = "wine"
	// ExecutableName is the main runtime executable under <dir>/bin.
	ExecutableName = "wine64"
	// ConfigToolName is the configuration companion next to the main executable.
	ConfigToolName = "winecfg"

	// DefaultChannel is used by Select when the caller names no channel.
	DefaultChannel = "rossetta"
	// NativeARM64Channel tags arm64 builds and the external override runtime.
	NativeARM64Channel = "native-arm64"
	// CustomChannel tags runtimes built from an explicit executable path.
	CustomChannel = "custom"
)

type (
	// WineRuntime is the resolved runtime a bottle launches with. It is copied
	// into the bottle record at creation, so later catalog changes never
	// affect an existing bottle.
	WineRuntime struct {
		Label      string `json:"label"`
		Wine64Path string `json:"wine64_path"`
		Version    string `json:"version"`
		Channel    string `json:"channel,omitempty"`
	}

	// Descriptor is one catalog entry produced by discovery.
	Descriptor struct {
		Channel    string `json:"channel"`
		Label      string `json:"label"`
		Version    string `json:"version"`
		Wine64Path string `json:"wine64_path"`
		Notes      string `json:"notes,omitempty"`
	}

	// Criteria drives Catalog.Select. Version is required by callers; the
	// other fields are optional overrides.
	Criteria struct {
		Version string
		Label   string
		Path    string
		Channel string
	}
)

// ChannelForArch maps the architecture segment of a runtime directory name to
// its channel. Unknown architectures get a synthesized "custom-<arch>" channel.
func ChannelForArch(arch string) string {
	switch arch {
	case "x86_64":
		return DefaultChannel
	case "arm64":
		return NativeARM64Channel
	default:
		return "custom-" + arch
	}
}

// WineRuntime converts the descriptor into the value embedded in bottle records.
func (d Descriptor) WineRuntime() WineRuntime {
	return WineRuntime{
		Label:      d.Label,
		Wine64Path: d.Wine64Path,
		Version:    d.Version,
		Channel:    d.Channel,
	}
}

// ConfigToolPath returns the companion configuration tool next to the main
// executable. It reports false when the executable path has no directory part.
func (r WineRuntime) ConfigToolPath() (string, bool) {
	dir := filepath.Dir(r.Wine64Path)
	if r.Wine64Path == "" || dir == "." {
		return "", false
	}
	return filepath.Join(dir, ConfigToolName), true
}

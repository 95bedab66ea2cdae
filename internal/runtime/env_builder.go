// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"

	"github.com/siliconalloy/alloy/pkg/types"
)

const (
	// PrefixEnvVar points the runtime at a bottle's isolated environment.
	PrefixEnvVar = "WINEPREFIX"
	// DebugEnvVar controls runtime debug channels.
	DebugEnvVar = "WINEDEBUG"
	// DefaultVersionEnvVar is written by winecfg steps that name a version.
	DefaultVersionEnvVar = "WINE_DEFAULT_VERSION"
)

// EnvBuilder assembles the environment of a launched process. Layers are
// applied in order and a later entry for a key wins:
//
//  1. Host environment (Environ, default os.Environ)
//  2. Base: launcher defaults such as WINEDEBUG
//  3. The request environment, built with BottleEnv:
//     WINEPREFIX, then bottle overrides, then call-specific overrides
type EnvBuilder struct {
	Environ func() []string
	Base    types.Env
}

// Build returns the KEY=VALUE list for exec.Cmd.Env. Duplicate keys are kept;
// exec.Cmd resolves them in favour of the last occurrence.
func (b EnvBuilder) Build(request types.Env) []string {
	environ := b.Environ
	if environ == nil {
		environ = os.Environ
	}
	host := environ()
	out := make([]string, 0, len(host)+len(b.Base)+len(request))
	out = append(out, host...)
	out = append(out, b.Base.Strings()...)
	return append(out, request.Strings()...)
}

// BottleEnv layers the launch-specific variables for a bottle: the prefix
// variable first, then the bottle's accumulated overrides, then per-call
// overrides. Inputs are not modified.
func BottleEnv(prefix string, overrides, extra types.Env) types.Env {
	env := make(types.Env, 0, 1+len(overrides)+len(extra))
	env = append(env, types.EnvVar{Key: PrefixEnvVar, Value: prefix})
	env = append(env, overrides...)
	return append(env, extra...)
}

// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"encoding/json"

	"github.com/siliconalloy/alloy/pkg/types"
)

// Step kinds as reported in the "type" field of a serialized step.
const (
	KindRun         StepKind = "run"
	KindWaitForExit StepKind = "wait_for_exit"
	KindWineCfg     StepKind = "wine_cfg"
	KindEnv         StepKind = "env"
	KindCopy        StepKind = "copy"
)

type (
	// StepKind names a step variant.
	StepKind string

	// Step is one canonical recipe instruction. The set of implementations
	// is closed: Run, WaitForExit, WineCfg, Env and Copy.
	Step interface {
		Kind() StepKind
		isStep()
	}

	// Run launches Path (resolved against the recipe's resources) with Args
	// inside the bottle and waits for it to exit.
	Run struct {
		Path string   `json:"path"`
		Args []string `json:"args"`
	}

	// WaitForExit documents that the preceding Run already waited.
	WaitForExit struct{}

	// WineCfg launches the runtime's configuration tool, first recording
	// Version as WINE_DEFAULT_VERSION when it is set.
	WineCfg struct {
		Version string `json:"version,omitempty"`
	}

	// Env overwrites bottle environment overrides, in document order.
	Env struct {
		Variables types.Env `json:"variables"`
	}

	// Copy copies a recipe resource into the bottle prefix.
	Copy struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
)

func (Run) Kind() StepKind         { return KindRun }
func (WaitForExit) Kind() StepKind { return KindWaitForExit }
func (WineCfg) Kind() StepKind     { return KindWineCfg }
func (Env) Kind() StepKind         { return KindEnv }
func (Copy) Kind() StepKind        { return KindCopy }

func (Run) isStep()         {}
func (WaitForExit) isStep() {}
func (WineCfg) isStep()     {}
func (Env) isStep()         {}
func (Copy) isStep()        {}

// MarshalJSON methods add a "type" discriminator next to the step fields.

func (s Run) MarshalJSON() ([]byte, error) {
	type fields Run
	if s.Args == nil {
		s.Args = []string{}
	}
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		fields
	}{KindRun, fields(s)})
}

func (WaitForExit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type StepKind `json:"type"`
	}{KindWaitForExit})
}

func (s WineCfg) MarshalJSON() ([]byte, error) {
	type fields WineCfg
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		fields
	}{KindWineCfg, fields(s)})
}

func (s Env) MarshalJSON() ([]byte, error) {
	type fields Env
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		fields
	}{KindEnv, fields(s)})
}

func (s Copy) MarshalJSON() ([]byte, error) {
	type fields Copy
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		fields
	}{KindCopy, fields(s)})
}

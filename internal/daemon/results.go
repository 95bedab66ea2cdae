// SPDX-License-Identifier: MPL-2.0

package daemon

import (
	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
)

// Method results. The CLI decodes responses into the same types, except
// RecipeResult: its steps are an interface and are read back generically.
type (
	PingResult struct {
		Status string `json:"status"`
	}

	InfoResult struct {
		Version    string               `json:"version"`
		RuntimeDir string               `json:"runtime_dir"`
		BottleRoot string               `json:"bottle_root"`
		RecipeDir  string               `json:"recipe_dir"`
		Runtimes   []runtime.Descriptor `json:"runtimes"`
	}

	RuntimesResult struct {
		Runtimes []runtime.Descriptor `json:"runtimes"`
	}

	BottlesResult struct {
		Bottles []bottle.Record `json:"bottles"`
	}

	BottleResult struct {
		Bottle bottle.Record `json:"bottle"`
	}

	DeleteResult struct {
		Deleted uuid.UUID `json:"deleted"`
	}

	// RunResult reports how a program run with bottle.run exited. A
	// non-zero exit is still a successful call.
	RunResult struct {
		ExitStatus types.ExitCode `json:"exit_status"`
		Success    bool           `json:"success"`
	}

	RecipesResult struct {
		Recipes []recipe.Summary `json:"recipes"`
	}

	RecipeResult struct {
		Recipe recipe.Manifest `json:"recipe"`
	}

	ApplyResult struct {
		Applied string `json:"applied"`
	}

	ShortcutResult struct {
		Shortcut string `json:"shortcut"`
	}
)

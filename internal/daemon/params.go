// SPDX-License-Identifier: MPL-2.0

package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/rpc"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
)

type (
	// params is implemented by every method's parameter struct.
	params interface {
		shape() string
		validate() error
	}

	// CreateParams are the parameters of bottle.create.
	CreateParams struct {
		Name        string `json:"name"`
		WineVersion string `json:"wine_version"`
		WineLabel   string `json:"wine_label,omitempty"`
		WinePath    string `json:"wine_path,omitempty"`
		Channel     string `json:"channel,omitempty"`
	}

	// DeleteParams are the parameters of bottle.delete.
	DeleteParams struct {
		ID uuid.UUID `json:"id"`
	}

	// RunParams are the parameters of bottle.run. Env is layered over the
	// bottle's own overrides for this launch only.
	RunParams struct {
		ID         uuid.UUID `json:"id"`
		Executable string    `json:"executable"`
		Args       []string  `json:"args,omitempty"`
		Env        types.Env `json:"env,omitempty"`
	}

	// RecipeParams are the parameters of recipe.show.
	RecipeParams struct {
		RecipeID string `json:"recipe_id"`
	}

	// ApplyParams are the parameters of recipe.apply.
	ApplyParams struct {
		BottleID uuid.UUID `json:"bottle_id"`
		RecipeID string    `json:"recipe_id"`
	}

	// ShortcutParams are the parameters of shortcut.create. An empty
	// Destination means the default shortcut directory.
	ShortcutParams struct {
		BottleID    uuid.UUID `json:"bottle_id"`
		Name        string    `json:"name"`
		Executable  string    `json:"executable"`
		Destination string    `json:"destination,omitempty"`
	}
)

func (CreateParams) shape() string { return "{ name, wine_version, wine_label?, wine_path?, channel? }" }
func (DeleteParams) shape() string { return "{ id }" }
func (RunParams) shape() string    { return "{ id, executable, args?, env? }" }
func (RecipeParams) shape() string { return "{ recipe_id }" }
func (ApplyParams) shape() string  { return "{ bottle_id, recipe_id }" }
func (ShortcutParams) shape() string {
	return "{ bottle_id, name, executable, destination? }"
}

func (p CreateParams) validate() error {
	return firstMissing(field{"name", p.Name != ""}, field{"wine_version", p.WineVersion != ""})
}

func (p DeleteParams) validate() error {
	return firstMissing(field{"id", p.ID != uuid.Nil})
}

func (p RunParams) validate() error {
	if err := firstMissing(field{"id", p.ID != uuid.Nil}, field{"executable", p.Executable != ""}); err != nil {
		return err
	}
	for _, v := range p.Env {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p RecipeParams) validate() error {
	return firstMissing(field{"recipe_id", p.RecipeID != ""})
}

func (p ApplyParams) validate() error {
	return firstMissing(field{"bottle_id", p.BottleID != uuid.Nil}, field{"recipe_id", p.RecipeID != ""})
}

func (p ShortcutParams) validate() error {
	return firstMissing(
		field{"bottle_id", p.BottleID != uuid.Nil},
		field{"name", p.Name != ""},
		field{"executable", p.Executable != ""},
	)
}

type field struct {
	name    string
	present bool
}

func firstMissing(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("missing field %s", f.name)
		}
	}
	return nil
}

// decode unmarshals raw into P and validates it. Absent or null params
// decode as an empty object, so required fields report as missing.
func decode[P params](method string, raw json.RawMessage) (P, error) {
	var p P
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return p, paramsError(method, p, err)
		}
	}
	if err := p.validate(); err != nil {
		return p, paramsError(method, p, err)
	}
	return p, nil
}

func paramsError(method string, p params, err error) error {
	return fmt.Errorf("%w: %w", rpc.ErrInvalidParams,
		issue.Wrap(issue.ErrInvalidInput, fmt.Sprintf("expected %s params %s", method, p.shape()), err))
}

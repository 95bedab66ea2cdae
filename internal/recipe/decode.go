// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/siliconalloy/alloy/pkg/cueutil"
	"github.com/siliconalloy/alloy/pkg/types"

	"gopkg.in/yaml.v3"
)

//go:embed recipe_schema.cue
var recipeSchema []byte

type rawManifest struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []yaml.Node `yaml:"steps"`
}

type runParams struct {
	Command string    `yaml:"command"`
	File    string    `yaml:"file"`
	Path    string    `yaml:"path"`
	Args    yaml.Node `yaml:"args"`
}

type copyParams struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Parse decodes a YAML manifest, validates it against #Recipe and
// normalizes every step. filename only labels errors.
func Parse(data []byte, filename string) (Manifest, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return Manifest{}, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", filename, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Manifest{}, fmt.Errorf("%s: empty document", filename)
	}

	var generic any
	if err := doc.Decode(&generic); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", filename, err)
	}
	if err := cueutil.ValidateValue(recipeSchema, "#Recipe", generic, cueutil.WithFilename(filename)); err != nil {
		return Manifest{}, err
	}

	var raw rawManifest
	if err := doc.Decode(&raw); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", filename, err)
	}

	m := Manifest{ID: raw.ID, Name: raw.Name, Description: raw.Description, Steps: make([]Step, 0, len(raw.Steps))}
	for i := range raw.Steps {
		step, err := normalizeStep(&raw.Steps[i])
		if err != nil {
			return Manifest{}, fmt.Errorf("%s: steps[%d]: %w", filename, i, err)
		}
		m.Steps = append(m.Steps, step)
	}
	return m, nil
}

// normalizeStep maps one on-disk step shape onto its canonical variant.
func normalizeStep(node *yaml.Node) (Step, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, errors.New("a step must be a mapping with exactly one key")
	}
	key, value := node.Content[0].Value, node.Content[1]

	switch key {
	case "run":
		return normalizeRun(value)
	case "wait_for_exit":
		var wait bool
		if err := value.Decode(&wait); err != nil {
			return nil, fmt.Errorf("wait_for_exit: %w", err)
		}
		if !wait {
			return nil, errors.New("wait_for_exit must be true when specified")
		}
		return WaitForExit{}, nil
	case "winecfg":
		var params struct {
			Version string `yaml:"version"`
		}
		if err := value.Decode(&params); err != nil {
			return nil, fmt.Errorf("winecfg: %w", err)
		}
		return WineCfg{Version: params.Version}, nil
	case "env":
		return normalizeEnv(value)
	case "copy":
		var params copyParams
		if err := value.Decode(&params); err != nil {
			return nil, fmt.Errorf("copy: %w", err)
		}
		if params.From == "" || params.To == "" {
			return nil, errors.New("copy step needs both from and to")
		}
		return Copy(params), nil
	default:
		return nil, fmt.Errorf("unknown step %q", key)
	}
}

// normalizeRun accepts a bare program string or an object naming the
// program under command, file or path (checked in that order).
func normalizeRun(value *yaml.Node) (Step, error) {
	if value.Kind == yaml.ScalarNode {
		if value.Value == "" {
			return nil, errors.New("run step missing command")
		}
		return Run{Path: value.Value, Args: []string{}}, nil
	}

	var params runParams
	if err := value.Decode(&params); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	program := params.Command
	for _, alt := range []string{params.File, params.Path} {
		if program == "" {
			program = alt
		}
	}
	if program == "" {
		return nil, errors.New("run step missing command")
	}

	args := []string{}
	switch params.Args.Kind {
	case 0:
	case yaml.SequenceNode:
		for _, a := range params.Args.Content {
			if a.Kind != yaml.ScalarNode {
				return nil, errors.New("run args must be scalars")
			}
			args = append(args, a.Value)
		}
	case yaml.ScalarNode:
		if params.Args.Tag != "!!null" {
			return nil, errors.New("run args must be a list")
		}
	default:
		return nil, errors.New("run args must be a list")
	}
	return Run{Path: program, Args: args}, nil
}

// normalizeEnv keeps document order; a key repeated within one step keeps
// its last value at its last position.
func normalizeEnv(value *yaml.Node) (Step, error) {
	if value.Kind != yaml.MappingNode {
		return nil, errors.New("env must be a mapping")
	}
	vars := types.Env{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("env %s: value must be a scalar", k.Value)
		}
		pair := types.EnvVar{Key: k.Value, Value: v.Value}
		if err := pair.Validate(); err != nil {
			return nil, err
		}
		vars = vars.Set(pair.Key, pair.Value)
	}
	return Env{Variables: vars}, nil
}

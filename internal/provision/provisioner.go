// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type (
	// Provisioner applies recipes to bottles.
	Provisioner struct {
		store    *bottle.Store
		launcher runtime.Launcher
		logger   *log.Logger
	}

	// Option configures a Provisioner.
	Option func(*Provisioner)

	// run is the mutable state of one Apply call.
	run struct {
		recipe recipe.Recipe
		record bottle.Record
		prefix string
		env    types.Env
	}
)

// WithLogger sets the logger for step progress and non-zero exits.
func WithLogger(l *log.Logger) Option {
	return func(p *Provisioner) { p.logger = l }
}

// New returns a Provisioner writing through store and starting processes
// with launcher.
func New(store *bottle.Store, launcher runtime.Launcher, opts ...Option) *Provisioner {
	p := &Provisioner{store: store, launcher: launcher, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply runs r's steps in order against bottle id and returns the recipe id.
//
// Environment changes accumulate in memory and are persisted only when
// every step succeeds. A failing step aborts the recipe and discards those
// changes, but side effects of earlier steps (launched programs, copied
// files) remain. A Run step whose program exits non-zero is logged and the
// recipe continues. The bottle's lock is held for the whole call.
func (p *Provisioner) Apply(ctx context.Context, id uuid.UUID, r recipe.Recipe) (string, error) {
	unlock := p.store.Lock(id)
	defer unlock()

	rec, err := p.store.Record(id)
	if err != nil {
		return "", err
	}

	st := &run{
		recipe: r,
		record: rec,
		prefix: p.store.Prefix(id),
		env:    rec.Environment.Clone(),
	}

	for i, step := range r.Manifest.Steps {
		p.logger.Debug("recipe step", "bottle", id, "recipe", r.Manifest.ID, "step", i+1, "kind", step.Kind())
		if err := p.apply(ctx, st, step); err != nil {
			return "", fmt.Errorf("recipe %s step %d (%s): %w", r.Manifest.ID, i+1, step.Kind(), err)
		}
	}

	rec.Environment = st.env
	if err := p.store.Update(id, rec); err != nil {
		return "", err
	}
	p.logger.Info("applied recipe", "bottle", id, "recipe", r.Manifest.ID, "steps", len(r.Manifest.Steps))
	return r.Manifest.ID, nil
}

func (p *Provisioner) apply(ctx context.Context, st *run, step recipe.Step) error {
	switch s := step.(type) {
	case recipe.Run:
		return p.launch(ctx, st, st.recipe.Resource(s.Path), s.Args)

	case recipe.WaitForExit:
		// Run already waited for the process.
		return nil

	case recipe.WineCfg:
		tool, ok := st.record.WineRuntime.ConfigToolPath()
		if !ok {
			return issue.NotFound("winecfg for runtime", st.record.WineRuntime.Label)
		}
		if _, err := os.Stat(tool); errors.Is(err, fs.ErrNotExist) {
			return issue.NotFound("winecfg", tool)
		}
		if s.Version != "" {
			st.env = st.env.Set(runtime.DefaultVersionEnvVar, s.Version)
		}
		return p.launch(ctx, st, tool, nil)

	case recipe.Env:
		for _, v := range s.Variables {
			st.env = st.env.Set(v.Key, v.Value)
		}
		return nil

	case recipe.Copy:
		src := st.recipe.Resource(s.From)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return issue.NotFound("recipe resource", src)
			}
			return issue.IO("stat recipe resource", err)
		}
		dst, err := prefixPath(st.prefix, s.To)
		if err != nil {
			return err
		}
		if err := copyPath(src, dst); err != nil {
			return issue.IO("copy "+s.From, err)
		}
		return nil

	default:
		return issue.InvalidInput("unsupported step %T", step)
	}
}

// launch runs path inside the bottle and waits. A start failure is an
// error; a non-zero exit is only logged.
func (p *Provisioner) launch(ctx context.Context, st *run, path string, args []string) error {
	req := runtime.Request{
		Path: path,
		Args: slices.Clone(args),
		Dir:  st.prefix,
		Env:  runtime.BottleEnv(st.prefix, st.env, nil),
	}
	res, err := p.launcher.Launch(ctx, req)
	if err != nil {
		return err
	}
	if !res.Success() {
		p.logger.Warn("program exited with non-zero status", "bottle", st.record.ID, "recipe", st.recipe.Manifest.ID,
			"path", path, "exit_code", res.ExitCode)
	}
	return nil
}

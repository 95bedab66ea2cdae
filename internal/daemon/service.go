// SPDX-License-Identifier: MPL-2.0

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/provision"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/internal/rpc"
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/internal/shortcut"

	"github.com/charmbracelet/log"
)

// Method names served by Service.
const (
	MethodPing           = "service.ping"
	MethodInfo           = "service.info"
	MethodRuntimeList    = "runtime.list"
	MethodBottleList     = "bottle.list"
	MethodBottleCreate   = "bottle.create"
	MethodBottleDelete   = "bottle.delete"
	MethodBottleRun      = "bottle.run"
	MethodRecipeList     = "recipe.list"
	MethodRecipeShow     = "recipe.show"
	MethodRecipeApply    = "recipe.apply"
	MethodShortcutCreate = "shortcut.create"
)

type (
	// Service dispatches RPC methods. It implements rpc.Handler and is safe
	// for concurrent use; per-bottle mutations are serialized through the
	// store's lock table.
	Service struct {
		store      *bottle.Store
		runtimes   *runtime.Catalog
		recipes    *recipe.Catalog
		launcher   runtime.Launcher
		engine     *provision.Provisioner
		logger     *log.Logger
		version    string
		translator []string
		// shortcutDir overrides shortcut.DefaultDir when set.
		shortcutDir string

		methods map[string]method
	}

	// Option configures a Service.
	Option func(*Service)

	method func(ctx context.Context, raw json.RawMessage) (any, error)
)

// WithLogger sets the service logger. The provisioner shares it.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithVersion sets the version reported by service.info.
func WithVersion(v string) Option {
	return func(s *Service) { s.version = v }
}

// WithTranslator sets the command prefix written into shortcut launchers.
// It should match the launcher's translator.
func WithTranslator(argv []string) Option {
	return func(s *Service) { s.translator = slices.Clone(argv) }
}

// WithShortcutDir replaces the default shortcut destination.
func WithShortcutDir(dir string) Option {
	return func(s *Service) { s.shortcutDir = dir }
}

// New builds a Service over its collaborators. runtimes is used as a fixed
// snapshot for the life of the service.
func New(store *bottle.Store, runtimes *runtime.Catalog, recipes *recipe.Catalog, launcher runtime.Launcher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		runtimes: runtimes,
		recipes:  recipes,
		launcher: launcher,
		logger:   log.New(io.Discard),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = provision.New(store, launcher, provision.WithLogger(s.logger))

	s.methods = map[string]method{
		MethodPing:           s.ping,
		MethodInfo:           s.info,
		MethodRuntimeList:    s.runtimeList,
		MethodBottleList:     s.bottleList,
		MethodBottleCreate:   s.bottleCreate,
		MethodBottleDelete:   s.bottleDelete,
		MethodBottleRun:      s.bottleRun,
		MethodRecipeList:     s.recipeList,
		MethodRecipeShow:     s.recipeShow,
		MethodRecipeApply:    s.recipeApply,
		MethodShortcutCreate: s.shortcutCreate,
	}
	return s
}

// Methods lists the served method names in sorted order.
func (s *Service) Methods() []string {
	return slices.Sorted(maps.Keys(s.methods))
}

// Dispatch runs one method. Unknown methods wrap rpc.ErrMethodNotFound and
// malformed params wrap rpc.ErrInvalidParams; everything else is forwarded
// from the component that failed.
func (s *Service) Dispatch(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	m, ok := s.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w %s: %w", rpc.ErrMethodNotFound, name, issue.ErrInvalidInput)
	}
	s.logger.Debug("rpc", "method", name)
	return m(ctx, raw)
}

func (s *Service) ping(context.Context, json.RawMessage) (any, error) {
	return PingResult{Status: "ok"}, nil
}

func (s *Service) info(context.Context, json.RawMessage) (any, error) {
	return InfoResult{
		Version:    s.version,
		RuntimeDir: s.runtimes.Root(),
		BottleRoot: s.store.Root(),
		RecipeDir:  s.recipes.Dir(),
		Runtimes:   s.runtimes.Descriptors(),
	}, nil
}

func (s *Service) runtimeList(context.Context, json.RawMessage) (any, error) {
	return RuntimesResult{Runtimes: s.runtimes.Descriptors()}, nil
}

func (s *Service) bottleList(context.Context, json.RawMessage) (any, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return BottlesResult{Bottles: records}, nil
}

func (s *Service) bottleCreate(_ context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[CreateParams](MethodBottleCreate, raw)
	if err != nil {
		return nil, err
	}
	rt := s.runtimes.Select(runtime.Criteria{
		Version: p.WineVersion,
		Label:   p.WineLabel,
		Path:    p.WinePath,
		Channel: p.Channel,
	})
	rec, err := s.store.Create(p.Name, rt)
	if err != nil {
		return nil, err
	}
	return BottleResult{Bottle: rec}, nil
}

func (s *Service) bottleDelete(_ context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[DeleteParams](MethodBottleDelete, raw)
	if err != nil {
		return nil, err
	}
	unlock := s.store.Lock(p.ID)
	defer unlock()
	if err := s.store.Remove(p.ID); err != nil {
		return nil, err
	}
	return DeleteResult{Deleted: p.ID}, nil
}

func (s *Service) bottleRun(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[RunParams](MethodBottleRun, raw)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Record(p.ID)
	if err != nil {
		return nil, err
	}
	prefix := s.store.Prefix(p.ID)

	res, err := s.launcher.Launch(ctx, runtime.Request{
		Path: rec.WineRuntime.Wine64Path,
		Args: append([]string{p.Executable}, p.Args...),
		Dir:  prefix,
		Env:  runtime.BottleEnv(prefix, rec.Environment, p.Env),
	})
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		s.logger.Warn("program exited with non-zero status", "bottle", rec.ID, "path", p.Executable, "exit_code", res.ExitCode)
	}
	return RunResult{ExitStatus: res.ExitCode, Success: res.Success()}, nil
}

func (s *Service) recipeList(context.Context, json.RawMessage) (any, error) {
	summaries, err := s.recipes.Summaries()
	if err != nil {
		return nil, err
	}
	return RecipesResult{Recipes: summaries}, nil
}

func (s *Service) recipeShow(_ context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[RecipeParams](MethodRecipeShow, raw)
	if err != nil {
		return nil, err
	}
	r, err := s.recipes.Find(p.RecipeID)
	if err != nil {
		return nil, err
	}
	return RecipeResult{Recipe: r.Manifest}, nil
}

func (s *Service) recipeApply(ctx context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[ApplyParams](MethodRecipeApply, raw)
	if err != nil {
		return nil, err
	}
	r, err := s.recipes.Find(p.RecipeID)
	if err != nil {
		return nil, err
	}
	applied, err := s.engine.Apply(ctx, p.BottleID, r)
	if err != nil {
		return nil, err
	}
	return ApplyResult{Applied: applied}, nil
}

func (s *Service) shortcutCreate(_ context.Context, raw json.RawMessage) (any, error) {
	p, err := decode[ShortcutParams](MethodShortcutCreate, raw)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Record(p.BottleID)
	if err != nil {
		return nil, err
	}

	dest := p.Destination
	if dest == "" {
		dest = s.shortcutDir
	}
	if dest == "" {
		if dest, err = shortcut.DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, issue.IO("create shortcut directory", err)
	}

	path, err := shortcut.Create(dest, shortcut.Bundle{
		Name:        p.Name,
		BottleID:    rec.ID,
		Prefix:      s.store.Prefix(rec.ID),
		Wine64Path:  rec.WineRuntime.Wine64Path,
		Executable:  p.Executable,
		Environment: rec.Environment,
		Translator:  s.translator,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("created shortcut", "path", path, "bottle", rec.ID, "name", rec.Name)
	return ShortcutResult{Shortcut: path}, nil
}

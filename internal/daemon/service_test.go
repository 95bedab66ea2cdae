// SPDX-License-Identifier: MPL-2.0

package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/internal/rpc"
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/internal/testutil"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
)

const dxvkRecipe = `id: dxvk
name: DXVK
description: Vulkan translation for **D3D11**
steps:
  - copy:
      from: dxvk.conf
      to: drive_c/dxvk.conf
  - env:
      DXVK_HUD: fps
  - run:
      command: setup_dxvk.exe
      args: [install]
  - wait_for_exit: true
`

type harness struct {
	svc         *daemon.Service
	store       *bottle.Store
	launcher    *testutil.RecordingLauncher
	runtimeRoot string
	wine64      string
	recipeDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root := t.TempDir()
	runtimeRoot := filepath.Join(root, "runtime")
	wine64 := testutil.FakeRuntimeTree(t, runtimeRoot, "x86_64", "7.0")
	catalog, err := runtime.LoadCatalog(runtimeRoot, "")
	if err != nil {
		t.Fatal(err)
	}

	store, err := bottle.NewStore(filepath.Join(root, "bottles"))
	if err != nil {
		t.Fatal(err)
	}

	recipeDir := filepath.Join(root, "recipes")
	testutil.MustWriteFile(t, filepath.Join(recipeDir, "dxvk", recipe.ManifestFile), []byte(dxvkRecipe), 0o644)
	testutil.MustWriteFile(t, filepath.Join(recipeDir, "dxvk", "resources", "dxvk.conf"), []byte("dxgi.maxFrameRate = 60\n"), 0o644)

	launcher := &testutil.RecordingLauncher{}
	svc := daemon.New(store, catalog, recipe.NewCatalog(recipeDir), launcher,
		daemon.WithVersion("1.2.3"),
		daemon.WithTranslator([]string{"arch", "-x86_64"}),
		daemon.WithShortcutDir(filepath.Join(root, "Applications")),
	)
	return &harness{svc: svc, store: store, launcher: launcher, runtimeRoot: runtimeRoot, wine64: wine64, recipeDir: recipeDir}
}

// call dispatches method and round-trips the result through JSON into out,
// the way a client sees it.
func (h *harness) call(t *testing.T, method string, params, out any) error {
	t.Helper()

	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw = data
	}
	result, err := h.svc.Dispatch(context.Background(), method, raw)
	if err != nil {
		return err
	}
	if out != nil {
		data, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("marshal %s result: %v", method, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshal %s result: %v", method, err)
		}
	}
	return nil
}

func (h *harness) create(t *testing.T, name string) bottle.Record {
	t.Helper()
	var res daemon.BottleResult
	if err := h.call(t, daemon.MethodBottleCreate, map[string]string{"name": name, "wine_version": "7.0"}, &res); err != nil {
		t.Fatalf("bottle.create error = %v", err)
	}
	return res.Bottle
}

func TestService_BottleLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.create(t, "My Game")
	if rec.Name != "my-game" {
		t.Errorf("Name = %q, want my-game", rec.Name)
	}
	if rec.WineRuntime.Wine64Path != h.wine64 {
		t.Errorf("runtime path = %q, want %q", rec.WineRuntime.Wine64Path, h.wine64)
	}
	if fi, err := os.Stat(h.store.Prefix(rec.ID)); err != nil || !fi.IsDir() {
		t.Errorf("prefix missing: %v", err)
	}

	var list daemon.BottlesResult
	if err := h.call(t, daemon.MethodBottleList, nil, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Bottles) != 1 || list.Bottles[0].ID != rec.ID {
		t.Fatalf("bottle.list = %+v, want the created bottle", list.Bottles)
	}

	var deleted daemon.DeleteResult
	if err := h.call(t, daemon.MethodBottleDelete, map[string]any{"id": rec.ID}, &deleted); err != nil {
		t.Fatalf("bottle.delete error = %v", err)
	}
	if deleted.Deleted != rec.ID {
		t.Errorf("deleted = %s, want %s", deleted.Deleted, rec.ID)
	}

	if err := h.call(t, daemon.MethodBottleList, nil, &list); err != nil || len(list.Bottles) != 0 {
		t.Errorf("bottle.list after delete = %+v, %v", list.Bottles, err)
	}
	err := h.call(t, daemon.MethodBottleDelete, map[string]any{"id": rec.ID}, nil)
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestService_BottleCreateSelectsRuntime(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tests := []struct {
		name   string
		params map[string]string
		want   runtime.WineRuntime
	}{
		{
			name:   "channel fallback to installed version",
			params: map[string]string{"name": "a", "wine_version": "9.0", "channel": "rossetta"},
			want:   runtime.WineRuntime{Label: "wine x86_64 7.0", Wine64Path: h.wine64, Version: "7.0", Channel: "rossetta"},
		},
		{
			name:   "explicit path",
			params: map[string]string{"name": "b", "wine_version": "9.1", "wine_path": "/opt/wine/bin/wine64"},
			want:   runtime.WineRuntime{Label: "custom wine 9.1", Wine64Path: "/opt/wine/bin/wine64", Version: "9.1", Channel: "custom"},
		},
		{
			name:   "unknown channel synthesizes",
			params: map[string]string{"name": "c", "wine_version": "10.0", "channel": "beta", "wine_label": "bleeding"},
			want: runtime.WineRuntime{
				Label:      "bleeding",
				Wine64Path: filepath.Join(h.runtimeRoot, "wine-x86_64-10.0", "bin", "wine64"),
				Version:    "10.0",
				Channel:    "beta",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var res daemon.BottleResult
			if err := h.call(t, daemon.MethodBottleCreate, tt.params, &res); err != nil {
				t.Fatalf("bottle.create error = %v", err)
			}
			if res.Bottle.WineRuntime != tt.want {
				t.Errorf("runtime = %+v, want %+v", res.Bottle.WineRuntime, tt.want)
			}
		})
	}
}

func TestService_InvalidParams(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tests := []struct {
		method  string
		params  string
		wantMsg string
	}{
		{method: daemon.MethodBottleCreate, params: `{"name":"x"}`, wantMsg: "missing field wine_version"},
		{method: daemon.MethodBottleCreate, params: ``, wantMsg: "missing field name"},
		{method: daemon.MethodBottleCreate, params: `{"name":5,"wine_version":"7.0"}`, wantMsg: "expected bottle.create params"},
		{method: daemon.MethodBottleDelete, params: `{"id":"not-a-uuid"}`, wantMsg: "expected bottle.delete params { id }"},
		{method: daemon.MethodBottleRun, params: `{"id":"` + uuid.NewString() + `"}`, wantMsg: "missing field executable"},
		{method: daemon.MethodBottleRun, params: `{"id":"` + uuid.NewString() + `","executable":"a.exe","env":[["","v"]]}`, wantMsg: "invalid"},
		{method: daemon.MethodRecipeApply, params: `null`, wantMsg: "missing field bottle_id"},
		{method: daemon.MethodRecipeShow, params: `[]`, wantMsg: "expected recipe.show params"},
		{method: daemon.MethodShortcutCreate, params: `{"bottle_id":"` + uuid.NewString() + `","name":"x"}`, wantMsg: "missing field executable"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.params, func(t *testing.T) {
			t.Parallel()

			_, err := h.svc.Dispatch(context.Background(), tt.method, json.RawMessage(tt.params))
			if !errors.Is(err, rpc.ErrInvalidParams) || !errors.Is(err, issue.ErrInvalidInput) {
				t.Fatalf("Dispatch() error = %v, want invalid params", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestService_InvalidNameIsNotAParamsError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.call(t, daemon.MethodBottleCreate, map[string]string{"name": "!!!", "wine_version": "7.0"}, nil)
	if !errors.Is(err, issue.ErrInvalidInput) || errors.Is(err, rpc.ErrInvalidParams) {
		t.Errorf("error = %v, want plain invalid input", err)
	}
}

func TestService_UnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := newHarness(t).svc.Dispatch(context.Background(), "bottle.explode", nil)
	if !errors.Is(err, rpc.ErrMethodNotFound) {
		t.Errorf("Dispatch() error = %v, want ErrMethodNotFound", err)
	}
	if rpc.ErrorFor(err).Code != rpc.CodeMethodNotFound {
		t.Errorf("wire code = %d", rpc.ErrorFor(err).Code)
	}
}

func TestService_BottleRun(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.create(t, "game")
	rec.Environment = types.Env{{Key: "DXVK_HUD", Value: "fps"}}
	if err := h.store.Update(rec.ID, rec); err != nil {
		t.Fatal(err)
	}
	h.launcher.Respond = func(int, runtime.Request) (runtime.Result, error) {
		return runtime.NewExitCodeResult(3), nil
	}

	var res daemon.RunResult
	err := h.call(t, daemon.MethodBottleRun, daemon.RunParams{
		ID:         rec.ID,
		Executable: `C:\game\game.exe`,
		Args:       []string{"-windowed"},
		Env:        types.Env{{Key: "DXVK_HUD", Value: "0"}},
	}, &res)
	if err != nil {
		t.Fatalf("bottle.run error = %v, want non-zero exit as a result", err)
	}
	if res.ExitStatus != 3 || res.Success {
		t.Errorf("result = %+v, want exit 3 unsuccessful", res)
	}

	reqs := h.launcher.Requests()
	if len(reqs) != 1 {
		t.Fatalf("launches = %d", len(reqs))
	}
	prefix := h.store.Prefix(rec.ID)
	req := reqs[0]
	if req.Path != h.wine64 || !reflect.DeepEqual(req.Args, []string{`C:\game\game.exe`, "-windowed"}) || req.Dir != prefix {
		t.Errorf("request = %+v", req)
	}
	wantEnv := types.Env{{Key: "WINEPREFIX", Value: prefix}, {Key: "DXVK_HUD", Value: "fps"}, {Key: "DXVK_HUD", Value: "0"}}
	if !reflect.DeepEqual(req.Env, wantEnv) {
		t.Errorf("Env = %v, want %v", req.Env, wantEnv)
	}
}

func TestService_BottleRunErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.call(t, daemon.MethodBottleRun, daemon.RunParams{ID: uuid.New(), Executable: "a.exe"}, nil)
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("unknown bottle error = %v, want ErrNotFound", err)
	}

	rec := h.create(t, "game")
	h.launcher.Respond = func(int, runtime.Request) (runtime.Result, error) {
		return runtime.Result{ExitCode: types.NoExitCode}, issue.Wrap(issue.ErrLaunchFailure, "launch", os.ErrNotExist)
	}
	err = h.call(t, daemon.MethodBottleRun, daemon.RunParams{ID: rec.ID, Executable: "a.exe"}, nil)
	if !errors.Is(err, issue.ErrLaunchFailure) {
		t.Errorf("launch error = %v, want ErrLaunchFailure", err)
	}
}

func TestService_Recipes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	var list daemon.RecipesResult
	if err := h.call(t, daemon.MethodRecipeList, nil, &list); err != nil {
		t.Fatal(err)
	}
	want := []recipe.Summary{{ID: "dxvk", Name: "DXVK", Description: "Vulkan translation for **D3D11**"}}
	if !reflect.DeepEqual(list.Recipes, want) {
		t.Errorf("recipe.list = %+v, want %+v", list.Recipes, want)
	}

	// recipe.show returns the normalized manifest.
	var shown map[string]any
	if err := h.call(t, daemon.MethodRecipeShow, daemon.RecipeParams{RecipeID: "dxvk"}, &shown); err != nil {
		t.Fatal(err)
	}
	steps := shown["recipe"].(map[string]any)["steps"].([]any)
	if len(steps) != 4 || steps[2].(map[string]any)["type"] != "run" {
		t.Errorf("recipe.show steps = %v", steps)
	}
	if err := h.call(t, daemon.MethodRecipeShow, daemon.RecipeParams{RecipeID: "nope"}, nil); !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("unknown recipe error = %v, want ErrNotFound", err)
	}

	rec := h.create(t, "game")
	var applied daemon.ApplyResult
	if err := h.call(t, daemon.MethodRecipeApply, daemon.ApplyParams{BottleID: rec.ID, RecipeID: "dxvk"}, &applied); err != nil {
		t.Fatalf("recipe.apply error = %v", err)
	}
	if applied.Applied != "dxvk" {
		t.Errorf("applied = %q", applied.Applied)
	}
	if _, err := os.Stat(filepath.Join(h.store.Prefix(rec.ID), "drive_c", "dxvk.conf")); err != nil {
		t.Errorf("copy step did not run: %v", err)
	}
	got, err := h.store.Record(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Environment.Lookup("DXVK_HUD"); v != "fps" {
		t.Errorf("persisted DXVK_HUD = %q", v)
	}
	reqs := h.launcher.Requests()
	if len(reqs) != 1 || reqs[0].Path != filepath.Join(h.recipeDir, "dxvk", "resources", "setup_dxvk.exe") {
		t.Errorf("launches = %+v", reqs)
	}

	// Recipes are re-read per call; a new manifest shows up immediately.
	testutil.MustWriteFile(t, filepath.Join(h.recipeDir, "aaa.yaml"), []byte("id: aaa\nname: AAA\nsteps: []\n"), 0o644)
	if err := h.call(t, daemon.MethodRecipeList, nil, &list); err != nil || len(list.Recipes) != 2 || list.Recipes[0].ID != "aaa" {
		t.Errorf("recipe.list after edit = %+v, %v", list.Recipes, err)
	}
}

func TestService_RuntimeSnapshot(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	testutil.FakeRuntimeTree(t, h.runtimeRoot, "arm64", "8.0")

	var rts daemon.RuntimesResult
	if err := h.call(t, daemon.MethodRuntimeList, nil, &rts); err != nil {
		t.Fatal(err)
	}
	if len(rts.Runtimes) != 1 || rts.Runtimes[0].Version != "7.0" {
		t.Errorf("runtime.list = %+v, want only the runtime present at construction", rts.Runtimes)
	}

	var info daemon.InfoResult
	if err := h.call(t, daemon.MethodInfo, nil, &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.RuntimeDir != h.runtimeRoot || info.BottleRoot != h.store.Root() || info.RecipeDir != h.recipeDir || len(info.Runtimes) != 1 {
		t.Errorf("service.info = %+v", info)
	}

	var pong daemon.PingResult
	if err := h.call(t, daemon.MethodPing, nil, &pong); err != nil || pong.Status != "ok" {
		t.Errorf("service.ping = %+v, %v", pong, err)
	}
}

func TestService_ShortcutCreate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.create(t, "steam")
	dest := filepath.Join(t.TempDir(), "Shortcuts")

	var res daemon.ShortcutResult
	err := h.call(t, daemon.MethodShortcutCreate, daemon.ShortcutParams{
		BottleID:    rec.ID,
		Name:        "Steam",
		Executable:  `C:\Steam\steam.exe`,
		Destination: dest,
	}, &res)
	if err != nil {
		t.Fatalf("shortcut.create error = %v", err)
	}
	if res.Shortcut != filepath.Join(dest, "Steam.app") {
		t.Errorf("shortcut = %q", res.Shortcut)
	}
	script, err := os.ReadFile(filepath.Join(res.Shortcut, "Contents", "MacOS", "launch"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(script), "exec arch -x86_64 "+h.wine64) {
		t.Errorf("launcher script = %s", script)
	}

	// Without a destination the configured default directory is used.
	if err := h.call(t, daemon.MethodShortcutCreate, daemon.ShortcutParams{BottleID: rec.ID, Name: "Steam", Executable: "steam.exe"}, &res); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(filepath.Dir(res.Shortcut)) != "Applications" {
		t.Errorf("default shortcut = %q", res.Shortcut)
	}
}

func TestService_Methods(t *testing.T) {
	t.Parallel()

	got := newHarness(t).svc.Methods()
	want := []string{
		"bottle.create", "bottle.delete", "bottle.list", "bottle.run",
		"recipe.apply", "recipe.list", "recipe.show",
		"runtime.list", "service.info", "service.ping", "shortcut.create",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Methods() = %v, want %v", got, want)
	}
}

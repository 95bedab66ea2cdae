// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/testutil"
)

// isolateEnv blanks every variable that feeds the loader. Viper ignores
// empty environment values, so blank means unset.
func isolateEnv(t *testing.T, dataDir string) {
	t.Helper()
	for _, b := range envBindings {
		t.Setenv(b.env, "")
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv(EnvDataDir, dataDir)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if !cfg.LogFile {
		t.Error("LogFile should default to true")
	}
	if cfg.Launcher.Debug != "-all" {
		t.Errorf("Launcher.Debug = %q, want -all", cfg.Launcher.Debug)
	}

	wantTranslator := []string{}
	if runtime.GOOS == "darwin" {
		wantTranslator = []string{"arch", "-x86_64"}
	}
	if !reflect.DeepEqual(cfg.Launcher.Translator, wantTranslator) {
		t.Errorf("Translator = %v, want %v", cfg.Launcher.Translator, wantTranslator)
	}
	if cfg.RuntimeDir != "" || cfg.RecipeDir != "" || cfg.SocketPath != "" {
		t.Error("derived directories should stay empty until resolved")
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	data := t.TempDir()
	isolateEnv(t, data)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}

	want := map[string]string{
		"DataDir":    data,
		"RuntimeDir": filepath.Join(data, "runtime"),
		"RecipeDir":  filepath.Join(data, "recipes"),
		"SocketPath": filepath.Join(data, "daemon.sock"),
		"BottleDir":  filepath.Join(data, "bottles"),
		"LogFile":    filepath.Join(data, "logs", "daemon.log"),
	}
	got := map[string]string{
		"DataDir":    cfg.DataDir,
		"RuntimeDir": cfg.RuntimeDir,
		"RecipeDir":  cfg.RecipeDir,
		"SocketPath": cfg.SocketPath,
		"BottleDir":  cfg.BottleDir(),
		"LogFile":    cfg.LogFilePath(),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paths =\n  %v\nwant\n  %v", got, want)
	}
}

func TestLoad_SocketUnderRuntimeDir(t *testing.T) {
	isolateEnv(t, t.TempDir())
	runDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runDir)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(runDir, "silicon-alloy", "daemon.sock"); cfg.SocketPath != want {
		t.Errorf("SocketPath = %q, want %q", cfg.SocketPath, want)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	isolateEnv(t, "")

	cfgDir := t.TempDir()
	data := t.TempDir()
	recipes := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), []byte(`
data_dir:  "`+data+`"
log_level: "debug"
log_file:  false
launcher: translator: ["box64"]
`), 0o644)
	t.Setenv(EnvRecipeDir, recipes)
	t.Setenv(EnvExtraRuntime, "/opt/wine/bin/wine64")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != filepath.Join(cfgDir, "config.cue") {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.DataDir != data || cfg.RuntimeDir != filepath.Join(data, "runtime") {
		t.Errorf("DataDir/RuntimeDir = %q / %q", cfg.DataDir, cfg.RuntimeDir)
	}
	if cfg.RecipeDir != recipes {
		t.Errorf("RecipeDir = %q, want env value %q", cfg.RecipeDir, recipes)
	}
	if cfg.ExtraRuntime != "/opt/wine/bin/wine64" {
		t.Errorf("ExtraRuntime = %q", cfg.ExtraRuntime)
	}
	if cfg.LogLevel != LogLevelDebug || cfg.LogFile {
		t.Errorf("LogLevel/LogFile = %q / %v", cfg.LogLevel, cfg.LogFile)
	}
	if !reflect.DeepEqual(cfg.Launcher.Translator, []string{"box64"}) {
		t.Errorf("Translator = %v", cfg.Launcher.Translator)
	}
	if cfg.Launcher.Debug != DefaultDebug {
		t.Errorf("Debug = %q, want default kept", cfg.Launcher.Debug)
	}
}

func TestLoad_EnvironmentBeatsFile(t *testing.T) {
	isolateEnv(t, "")

	cfgDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), []byte(`data_dir: "/from/file"`+"\n"+`log_level: "warn"`+"\n"), 0o644)
	envData := t.TempDir()
	t.Setenv(EnvDataDir, envData)
	t.Setenv(EnvLogLevel, "error")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != envData || cfg.LogLevel != LogLevelError {
		t.Errorf("DataDir/LogLevel = %q / %q", cfg.DataDir, cfg.LogLevel)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "unknown log level", content: `log_level: "loud"`, wantMsg: "log_level"},
		{name: "unknown field", content: `colour: "blue"`, wantMsg: "colour"},
		{name: "wrong type", content: `log_file: "yes"`, wantMsg: "log_file"},
		{name: "blank path", content: `data_dir: " "`, wantMsg: "data_dir"},
		{name: "syntax error", content: `data_dir: "unterminated`, wantMsg: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t, t.TempDir())
			path := filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, path, []byte(tt.content+"\n"), 0o644)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not an ActionableError", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId || ae.Resource != path {
				t.Errorf("Issue/Resource = %d / %q", ae.Issue, ae.Resource)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolateEnv(t, t.TempDir())

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || len(ae.Suggestions) == 0 {
		t.Fatalf("Load() error = %v, want actionable error with suggestions", err)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	isolateEnv(t, t.TempDir())
	t.Setenv(EnvLogLevel, "chatty")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	isolateEnv(t, "")

	want := &Config{
		SocketPath:   "/run/alloy.sock",
		DataDir:      "/data",
		RuntimeDir:   "/runtimes",
		RecipeDir:    "/recipes",
		ExtraRuntime: "/opt/wine64",
		LogLevel:     LogLevelWarn,
		LogFile:      false,
		Launcher:     LauncherConfig{Translator: []string{"arch", "-x86_64"}, Debug: "fixme-all"},
	}
	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, []byte(GenerateCUE(want)), 0o644)

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(generated) error = %v\n%s", err, GenerateCUE(want))
	}
	if got.File != path {
		t.Errorf("File = %q, want %q", got.File, path)
	}
	want.File = path
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded =\n  %+v\nwant\n  %+v", got, want)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	isolateEnv(t, t.TempDir())
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}
	if _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path}); err != nil {
		t.Errorf("generated default config does not load: %v", err)
	}

	testutil.MustWriteFile(t, path, []byte("log_level: \"debug\"\n"), 0o644)
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "log_level: \"debug\"\n" {
		t.Error("existing config must not be overwritten")
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(func() { SetConfigDirOverride("") })

	SetConfigDirOverride("/tmp/alloy-cfg")
	if dir, err := ConfigDir(); err != nil || dir != "/tmp/alloy-cfg" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
	SetConfigDirOverride("")
	if dir, err := ConfigDir(); err != nil || !strings.HasSuffix(dir, AppName) {
		t.Errorf("ConfigDir() after clearing the override = %q, %v", dir, err)
	}
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"~":          home,
		"~/games":    filepath.Join(home, "games"),
		"/abs/path":  "/abs/path",
		"~user/x":    "~user/x",
		"relative/~": "relative/~",
	}
	for in, want := range tests {
		if got := expandHome(in); got != want {
			t.Errorf("expandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

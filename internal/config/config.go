// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// DefaultDebug silences wine's diagnostic channels.
	DefaultDebug = "-all"
)

// Environment variables that override the config file.
const (
	EnvSocket       = "SILICON_ALLOY_SOCKET"
	EnvDataDir      = "SILICON_ALLOY_DATA_DIR"
	EnvRuntimeDir   = "SILICON_ALLOY_RUNTIME_DIR"
	EnvRecipeDir    = "SILICON_ALLOY_RECIPES"
	EnvExtraRuntime = "SILICON_ALLOY_ARM64_WINE64"
	EnvLogLevel     = "SILICON_ALLOY_LOG"
)

//go:embed config_schema.cue
var configSchema []byte

var envBindings = []struct{ key, env string }{
	{"socket_path", EnvSocket},
	{"data_dir", EnvDataDir},
	{"runtime_dir", EnvRuntimeDir},
	{"recipe_dir", EnvRecipeDir},
	{"extra_runtime", EnvExtraRuntime},
	{"log_level", EnvLogLevel},
}

// DefaultConfig returns the built-in defaults. Directories derived from the
// data directory are left empty and filled in after loading, so that a
// data_dir override moves them too.
func DefaultConfig() *Config {
	dataDir, _ := DefaultDataDir() //nolint:errcheck // a blank data_dir is reported by IsValid
	return &Config{
		DataDir:  dataDir,
		LogLevel: LogLevelInfo,
		LogFile:  true,
		Launcher: LauncherConfig{
			Translator: defaultTranslator(),
			Debug:      DefaultDebug,
		},
	}
}

// defaultTranslator runs x86_64 wine builds under Rosetta on macOS.
func defaultTranslator() []string {
	if runtime.GOOS == "darwin" {
		return []string{"arch", "-x86_64"}
	}
	return []string{}
}

// resolve expands "~" and fills directories derived from DataDir.
func (c *Config) resolve() {
	c.DataDir = expandHome(c.DataDir)
	c.RuntimeDir = expandHome(c.RuntimeDir)
	c.RecipeDir = expandHome(c.RecipeDir)
	c.SocketPath = expandHome(c.SocketPath)
	c.ExtraRuntime = expandHome(c.ExtraRuntime)

	if c.DataDir == "" {
		return
	}
	if c.RuntimeDir == "" {
		c.RuntimeDir = filepath.Join(c.DataDir, "runtime")
	}
	if c.RecipeDir == "" {
		c.RecipeDir = filepath.Join(c.DataDir, "recipes")
	}
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath(c.DataDir)
	}
}

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath names the config file explicitly; it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when looking for config.cue.
		ConfigDirPath string
	}

	// Provider loads configuration. The CLI takes one so tests can supply
	// a fixed Config.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider returns the Provider reading config.cue and the
// SILICON_ALLOY_* environment.
func NewProvider() Provider {
	return fileProvider{}
}

// Load layers defaults, the CUE config file and the environment. Nothing
// is cached between calls.
func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("socket_path", defaults.SocketPath)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("runtime_dir", defaults.RuntimeDir)
	v.SetDefault("recipe_dir", defaults.RecipeDir)
	v.SetDefault("extra_runtime", defaults.ExtraRuntime)
	v.SetDefault("log_level", string(defaults.LogLevel))
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("launcher.translator", defaults.Launcher.Translator)
	v.SetDefault("launcher.debug", defaults.Launcher.Debug)

	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'alloy config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, err
			}
			cfgDir = dir
		}
		if path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(path) {
			resolvedPath = path
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'alloy config show'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.resolve()
	cfg.File = resolvedPath

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("log_level must be one of debug, info, warn, error").
			WithSuggestion("Check the SILICON_ALLOY_* environment variables").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, nil
}

// loadCUEIntoViper validates a config file against #Config and merges it
// into v. The file decodes to a map so unset keys keep their defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a config.cue with the defaults into dir (or
// ConfigDir when dir is empty) unless one exists. It returns the file path.
func CreateDefaultConfig(dir string) (string, error) {
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cfgPath) {
		return cfgPath, nil
	}

	cfg := DefaultConfig()
	cfg.resolve()
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Silicon Alloy configuration\n")
	sb.WriteString("// Environment variables SILICON_ALLOY_* take precedence over this file.\n\n")

	fmt.Fprintf(&sb, "socket_path: %q\n", cfg.SocketPath)
	fmt.Fprintf(&sb, "data_dir:    %q\n", cfg.DataDir)
	fmt.Fprintf(&sb, "runtime_dir: %q\n", cfg.RuntimeDir)
	fmt.Fprintf(&sb, "recipe_dir:  %q\n", cfg.RecipeDir)
	if cfg.ExtraRuntime != "" {
		fmt.Fprintf(&sb, "extra_runtime: %q\n", cfg.ExtraRuntime)
	}
	fmt.Fprintf(&sb, "log_level:   %q\n", cfg.LogLevel)
	fmt.Fprintf(&sb, "log_file:    %v\n", cfg.LogFile)

	sb.WriteString("\nlauncher: {\n")
	quoted := make([]string, len(cfg.Launcher.Translator))
	for i, arg := range cfg.Launcher.Translator {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	fmt.Fprintf(&sb, "\ttranslator: [%s]\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&sb, "\tdebug:      %q\n", cfg.Launcher.Debug)
	sb.WriteString("}\n")

	return sb.String()
}

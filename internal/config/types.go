// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// LogLevelDebug logs every RPC and step.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs lifecycle events such as created bottles and applied recipes.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs skipped entries and non-zero exits.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidPath is the sentinel error wrapped by InvalidPathError.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidLauncherConfig is the sentinel error wrapped by InvalidLauncherConfigError.
	ErrInvalidLauncherConfig = errors.New("invalid launcher config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum daemon log level.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidPathError is returned when a required path setting is blank.
	InvalidPathError struct {
		Field string
		Value string
	}

	// LauncherConfig controls how the daemon starts wine processes.
	LauncherConfig struct {
		// Translator is prepended to every command line.
		Translator []string `json:"translator" mapstructure:"translator"`
		// Debug is exported as WINEDEBUG when non-empty.
		Debug string `json:"debug" mapstructure:"debug"`
	}

	// InvalidLauncherConfigError collects launcher field errors.
	InvalidLauncherConfigError struct {
		FieldErrors []error
	}

	// Config is the resolved application configuration.
	Config struct {
		// File is the config file that was read, empty when only defaults
		// and the environment applied.
		File string `json:"-" mapstructure:"-"`

		SocketPath   string         `json:"socket_path" mapstructure:"socket_path"`
		DataDir      string         `json:"data_dir" mapstructure:"data_dir"`
		RuntimeDir   string         `json:"runtime_dir" mapstructure:"runtime_dir"`
		RecipeDir    string         `json:"recipe_dir" mapstructure:"recipe_dir"`
		ExtraRuntime string         `json:"extra_runtime,omitempty" mapstructure:"extra_runtime"`
		LogLevel     LogLevel       `json:"log_level" mapstructure:"log_level"`
		LogFile      bool           `json:"log_file" mapstructure:"log_file"`
		Launcher     LauncherConfig `json:"launcher" mapstructure:"launcher"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be a non-blank path", e.Field, e.Value)
}

// Unwrap returns ErrInvalidPath for errors.Is() compatibility.
func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

// IsValid returns whether every translator element is non-blank.
func (c LauncherConfig) IsValid() (bool, []error) {
	var errs []error
	for i, arg := range c.Translator {
		if strings.TrimSpace(arg) == "" {
			errs = append(errs, fmt.Errorf("launcher.translator[%d]: empty argument", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidLauncherConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidLauncherConfigError) Error() string {
	return fmt.Sprintf("invalid launcher config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidLauncherConfig for errors.Is() compatibility.
func (e *InvalidLauncherConfigError) Unwrap() error { return ErrInvalidLauncherConfig }

// IsValid returns whether the Config has valid fields. Path settings must be
// non-blank once defaults have been resolved; extra_runtime may be empty.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range []struct{ field, value string }{
		{"socket_path", c.SocketPath},
		{"data_dir", c.DataDir},
		{"runtime_dir", c.RuntimeDir},
		{"recipe_dir", c.RecipeDir},
	} {
		if strings.TrimSpace(p.value) == "" {
			errs = append(errs, &InvalidPathError{Field: p.field, Value: p.value})
		}
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Launcher.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// BottleDir is where bottle records live.
func (c *Config) BottleDir() string { return filepath.Join(c.DataDir, "bottles") }

// LogDir is where the daemon writes its log file.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

// LogFilePath is the daemon log file inside LogDir.
func (c *Config) LogFilePath() string { return filepath.Join(c.LogDir(), "daemon.log") }

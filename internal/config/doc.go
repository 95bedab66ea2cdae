// SPDX-License-Identifier: MPL-2.0

// Package config loads alloy's configuration using Viper with CUE as the
// file format.
//
// Values are layered: built-in defaults, then config.cue from ConfigDir (or
// an explicit path), then SILICON_ALLOY_* environment variables. The file is
// validated against the embedded config_schema.cue before it is merged.
// Directories derived from data_dir (runtime, recipes, bottles, logs, and
// the socket when XDG_RUNTIME_DIR is unset) follow a data_dir override.
package config

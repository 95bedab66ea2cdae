// SPDX-License-Identifier: MPL-2.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEnvVar is the sentinel error wrapped by InvalidEnvVarError.
var ErrInvalidEnvVar = errors.New("invalid environment variable")

type (
	// EnvVar is one KEY=VALUE override. On the wire it is a two-element array
	// ["KEY", "VALUE"], the format bottle metadata has always used.
	EnvVar struct {
		Key   string
		Value string
	}

	// Env is an ordered list of overrides. A later entry for a key shadows an
	// earlier one when the list is applied to a process environment; Set keeps
	// at most one entry per key.
	Env []EnvVar

	// InvalidEnvVarError is returned when a key cannot appear in a process environment.
	InvalidEnvVarError struct {
		Key string
	}
)

func (e *InvalidEnvVarError) Error() string {
	return fmt.Sprintf("invalid environment variable name %q", e.Key)
}

func (e *InvalidEnvVarError) Unwrap() error { return ErrInvalidEnvVar }

// Validate rejects empty keys and keys containing '=' or NUL.
func (v EnvVar) Validate() error {
	if v.Key == "" || strings.ContainsAny(v.Key, "=\x00") {
		return &InvalidEnvVarError{Key: v.Key}
	}
	return nil
}

// String renders the KEY=VALUE form used by exec.Cmd.
func (v EnvVar) String() string {
	return v.Key + "=" + v.Value
}

func (v EnvVar) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{v.Key, v.Value})
}

func (v *EnvVar) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode environment pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode environment pair: want 2 elements, got %d", len(pair))
	}
	v.Key, v.Value = pair[0], pair[1]
	return nil
}

// Set removes every entry for key and appends key=value, so the new value
// wins and the relative order of the other keys is kept.
func (e Env) Set(key, value string) Env {
	out := e[:0:0]
	for _, v := range e {
		if v.Key != key {
			out = append(out, v)
		}
	}
	return append(out, EnvVar{Key: key, Value: value})
}

// Lookup returns the effective value for key: the last entry wins.
func (e Env) Lookup(key string) (string, bool) {
	for i := len(e) - 1; i >= 0; i-- {
		if e[i].Key == key {
			return e[i].Value, true
		}
	}
	return "", false
}

// Strings renders the list in order as KEY=VALUE entries.
func (e Env) Strings() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.String())
	}
	return out
}

// Clone returns an independent copy.
func (e Env) Clone() Env {
	if e == nil {
		return nil
	}
	return append(Env(nil), e...)
}

// MarshalJSON encodes a nil Env as [] so metadata never carries null.
func (e Env) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]EnvVar(e))
}

// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/siliconalloy/alloy/pkg/types"
)

// LoadEnvFile reads a dotenv file into an ordered override list. A path
// suffixed with '?' is optional: a missing file yields an empty list.
func LoadEnvFile(path string) (types.Env, error) {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	content, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return types.Env{}, nil
		}
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	return ParseEnvFile(content, path)
}

// ParseEnvFile parses dotenv content. Supported forms:
//
//   - KEY=value
//   - KEY="value" (escapes: \n, \r, \t, \\, \", \$)
//   - KEY='value' (literal)
//   - export KEY=value
//   - KEY= (empty value)
//   - # comments and blank lines
//
// A key repeated later in the file replaces the earlier entry.
// The filename is used for error messages.
func ParseEnvFile(content []byte, filename string) (types.Env, error) {
	var env types.Env

	for i, line := range strings.Split(string(content), "\n") {
		lineNum := i + 1

		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%s:%d: invalid format (missing '=')", filename, lineNum)
		}

		key = strings.TrimSpace(key)
		if err := (types.EnvVar{Key: key}).Validate(); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNum, err)
		}

		parsed, err := parseEnvValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNum, err)
		}

		env = env.Set(key, parsed)
	}

	if env == nil {
		env = types.Env{}
	}
	return env, nil
}

// ParseEnvAssignment parses a single KEY=VALUE flag value. The value is taken verbatim.
func ParseEnvAssignment(s string) (types.EnvVar, error) {
	key, value, found := strings.Cut(s, "=")
	if !found {
		return types.EnvVar{}, fmt.Errorf("invalid env assignment %q (want KEY=VALUE)", s)
	}
	v := types.EnvVar{Key: key, Value: value}
	if err := v.Validate(); err != nil {
		return types.EnvVar{}, err
	}
	return v, nil
}

func parseEnvValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch value[0] {
	case '"':
		if len(value) < 2 || value[len(value)-1] != '"' {
			return "", errors.New("unterminated double quote")
		}
		return unescapeDoubleQuoted(value[1 : len(value)-1]), nil
	case '\'':
		if len(value) < 2 || value[len(value)-1] != '\'' {
			return "", errors.New("unterminated single quote")
		}
		return value[1 : len(value)-1], nil
	}

	// unquoted: an inline comment starts at " #"
	if idx := strings.Index(value, " #"); idx != -1 {
		value = strings.TrimSpace(value[:idx])
	}
	return value, nil
}

func unescapeDoubleQuoted(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 == len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch next := value[i]; next {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\', '"', '$':
			b.WriteByte(next)
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
	}

	return b.String()
}

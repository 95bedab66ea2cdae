// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ValidationError is one schema violation located in a document.
type ValidationError struct {
	// FilePath is the document that failed validation.
	FilePath string
	// Path is the JSON-style path to the offending value, e.g. "steps[2].copy.from".
	Path string
	// Message is the violation reported by CUE.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidationErrors collects every violation CUE reported for one document.
type ValidationErrors []*ValidationError

// Error renders a single violation inline and several as an indented list.
func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		if e.Path != "" {
			lines[i] = e.Path + ": " + e.Message
		} else {
			lines[i] = e.Message
		}
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", errs[0].FilePath, strings.Join(lines, "\n  "))
}

// FormatError converts a CUE error into ValidationErrors carrying
// JSON-style paths, e.g.
//
//	config.cue: launcher.debug: conflicting values 1 and string
//
// Errors that did not come from CUE are wrapped with the file path.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	// errors.Errors promotes foreign errors into CUE errors, dropping the
	// cause chain, so only genuine CUE errors go through it.
	var ce errors.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cueErrors := errors.Errors(err)

	out := make(ValidationErrors, 0, len(cueErrors))
	for _, e := range cueErrors {
		path := formatPath(errors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		out = append(out, &ValidationError{FilePath: filePath, Path: path, Message: msg})
	}
	return out
}

// formatPath turns CUE's selector list (["steps", "0", "run"]) into
// "steps[0].run".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if _, err := strconv.Atoi(part); err == nil && i > 0 {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// CheckFileSize rejects data larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package shortcut

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// FallbackName is used when a requested name sanitizes to nothing.
	FallbackName = "Windows App"
	// BundleExt is the directory suffix macOS treats as an application.
	BundleExt = ".app"
	// LauncherName is the bundle executable under Contents/MacOS.
	LauncherName = "launch"
	// IdentifierPrefix precedes the bottle id in CFBundleIdentifier.
	IdentifierPrefix = "com.siliconalloy.shortcut."
)

// Bundle describes the launcher to generate.
type Bundle struct {
	// Name is the display name; the bundle directory uses its sanitized form.
	Name string
	// BottleID ends up in the bundle identifier.
	BottleID uuid.UUID
	// Prefix is exported as WINEPREFIX and used as the working directory.
	Prefix string
	// Wine64Path is the runtime executable.
	Wine64Path string
	// Executable is the Windows program passed to the runtime.
	Executable string
	// Environment is exported after WINEPREFIX, in order.
	Environment types.Env
	// Translator is prepended to the exec line, e.g. ["arch", "-x86_64"].
	Translator []string
}

// DefaultDir is ~/Applications/Silicon Alloy.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", issue.IO("resolve home directory", err)
	}
	return filepath.Join(home, "Applications", "Silicon Alloy"), nil
}

// SanitizeName keeps letters, digits, spaces, '-' and '_', replaces every
// other character with '_', and trims surrounding whitespace.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		return s
	}
	return FallbackName
}

// Path returns where Create writes the bundle for name under dir.
func Path(dir, name string) string {
	return filepath.Join(dir, SanitizeName(name)+BundleExt)
}

// Create writes the bundle under dir, replacing any bundle already at that
// path, and returns the bundle path.
func Create(dir string, b Bundle) (string, error) {
	script, err := LaunchScript(b)
	if err != nil {
		return "", err
	}

	path := Path(dir, b.Name)
	if err := os.RemoveAll(path); err != nil {
		return "", issue.IO("remove existing shortcut", err)
	}

	contents := filepath.Join(path, "Contents")
	macos := filepath.Join(contents, "MacOS")
	for _, d := range []string{macos, filepath.Join(contents, "Resources")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", issue.IO("create shortcut bundle", err)
		}
	}

	if err := os.WriteFile(filepath.Join(contents, "Info.plist"), []byte(InfoPlist(b.Name, b.BottleID)), 0o644); err != nil {
		return "", issue.IO("write Info.plist", err)
	}
	launcher := filepath.Join(macos, LauncherName)
	if err := os.WriteFile(launcher, []byte(script), 0o755); err != nil {
		return "", issue.IO("write launcher script", err)
	}
	// WriteFile honors the umask; the launcher must be executable.
	if err := os.Chmod(launcher, 0o755); err != nil {
		return "", issue.IO("chmod launcher script", err)
	}
	return path, nil
}

// InfoPlist renders the bundle's property list.
func InfoPlist(name string, id uuid.UUID) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(name)) // bytes.Buffer writes never fail

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>CFBundleDevelopmentRegion</key>
    <string>en</string>
    <key>CFBundleExecutable</key>
    <string>%s</string>
    <key>CFBundleIdentifier</key>
    <string>%s%s</string>
    <key>CFBundleInfoDictionaryVersion</key>
    <string>6.0</string>
    <key>CFBundleName</key>
    <string>%s</string>
    <key>CFBundlePackageType</key>
    <string>APPL</string>
    <key>CFBundleShortVersionString</key>
    <string>1.0</string>
    <key>CFBundleVersion</key>
    <string>1.0</string>
</dict>
</plist>
`, LauncherName, IdentifierPrefix, id, escaped.String())
}

// LaunchScript renders the zsh launcher. Every interpolated value is shell
// quoted and the result is parsed back to make sure it is valid shell.
func LaunchScript(b Bundle) (string, error) {
	if b.Executable == "" {
		return "", issue.InvalidInput("shortcut executable must not be empty")
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/zsh\nset -euo pipefail\n\n")

	prefix, err := quote(b.Prefix)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "export WINEPREFIX=%s\n", prefix)

	for _, v := range b.Environment {
		if !syntax.ValidName(v.Key) {
			return "", issue.InvalidInput("environment key %q is not a valid shell name", v.Key)
		}
		q, err := quote(v.Value)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "export %s=%s\n", v.Key, q)
	}
	sb.WriteString("cd \"$WINEPREFIX\"\n")

	words := make([]string, 0, len(b.Translator)+2)
	for _, w := range append(append(append([]string(nil), b.Translator...), b.Wine64Path), b.Executable) {
		q, err := quote(w)
		if err != nil {
			return "", err
		}
		words = append(words, q)
	}
	fmt.Fprintf(&sb, "exec %s \"$@\"\n", strings.Join(words, " "))

	script := sb.String()
	if _, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(script), LauncherName); err != nil {
		return "", issue.InvalidInput("generated launcher script does not parse: %v", err)
	}
	return script, nil
}

func quote(s string) (string, error) {
	if s == "" {
		return "''", nil
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", issue.InvalidInput("cannot quote %q for the launcher script: %v", s, err)
	}
	return q, nil
}

// SPDX-License-Identifier: MPL-2.0

package runtime_test

import (
	"path/filepath"
	"testing"

	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/internal/testutil"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		setup       func(t *testing.T, root string)
		wantChannel []string
		wantVersion []string
	}{
		{
			name: "x86_64 maps to rossetta",
			setup: func(t *testing.T, root string) {
				testutil.FakeRuntimeTree(t, root, "x86_64", "7.0")
			},
			wantChannel: []string{"rossetta"},
			wantVersion: []string{"7.0"},
		},
		{
			name: "arm64 maps to native-arm64",
			setup: func(t *testing.T, root string) {
				testutil.FakeRuntimeTree(t, root, "arm64", "8.0")
			},
			wantChannel: []string{"native-arm64"},
			wantVersion: []string{"8.0"},
		},
		{
			name: "unknown arch gets custom channel and dashed version is kept",
			setup: func(t *testing.T, root string) {
				testutil.FakeRuntimeTree(t, root, "riscv64", "9.0-rc1")
			},
			wantChannel: []string{"custom-riscv64"},
			wantVersion: []string{"9.0-rc1"},
		},
		{
			name: "missing executable is skipped",
			setup: func(t *testing.T, root string) {
				testutil.MustMkdirAll(t, filepath.Join(root, "wine-x86_64-7.0", "bin"), 0o755)
			},
		},
		{
			name: "non matching names are skipped",
			setup: func(t *testing.T, root string) {
				testutil.FakeRuntimeTree(t, root, "x86_64", "7.0")
				testutil.MustWriteFile(t, filepath.Join(root, "proton-x86_64-7.0", "bin", "wine64"), []byte("#!/bin/sh\n"), 0o755)
				testutil.MustWriteFile(t, filepath.Join(root, "wine-x86_64", "bin", "wine64"), []byte("#!/bin/sh\n"), 0o755)
				testutil.MustWriteFile(t, filepath.Join(root, "wine-x86_64-loose-file"), []byte("x"), 0o644)
			},
			wantChannel: []string{"rossetta"},
			wantVersion: []string{"7.0"},
		},
		{
			name: "sorted by label",
			setup: func(t *testing.T, root string) {
				testutil.FakeRuntimeTree(t, root, "x86_64", "9.0")
				testutil.FakeRuntimeTree(t, root, "arm64", "8.0")
				testutil.FakeRuntimeTree(t, root, "x86_64", "7.0")
			},
			wantChannel: []string{"native-arm64", "rossetta", "rossetta"},
			wantVersion: []string{"8.0", "7.0", "9.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			tt.setup(t, root)

			got, err := runtime.Discover(root)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if len(got) != len(tt.wantChannel) {
				t.Fatalf("Discover() returned %d runtimes, want %d: %+v", len(got), len(tt.wantChannel), got)
			}
			for i, d := range got {
				if d.Channel != tt.wantChannel[i] || d.Version != tt.wantVersion[i] {
					t.Errorf("runtime[%d] = %s/%s, want %s/%s", i, d.Channel, d.Version, tt.wantChannel[i], tt.wantVersion[i])
				}
			}
		})
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	t.Parallel()

	got, err := runtime.Discover(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Discover() = %v, want empty non-nil list", got)
	}
}

func TestDiscover_DescriptorFields(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	wine64 := testutil.FakeRuntimeTree(t, root, "x86_64", "7.0")
	testutil.MustWriteFile(t, filepath.Join(root, "wine-x86_64-7.0", runtime.NotesFile), []byte("notes = \"staging build\"\n"), 0o644)

	got, err := runtime.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Discover() returned %d runtimes, want 1", len(got))
	}
	d := got[0]
	if d.Label != "wine x86_64 7.0" {
		t.Errorf("Label = %q, want %q", d.Label, "wine x86_64 7.0")
	}
	if d.Wine64Path != wine64 {
		t.Errorf("Wine64Path = %q, want %q", d.Wine64Path, wine64)
	}
	if d.Notes != "staging build" {
		t.Errorf("Notes = %q, want %q", d.Notes, "staging build")
	}
}

func TestDiscover_MalformedNotesKeepRuntime(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.FakeRuntimeTree(t, root, "arm64", "8.0")
	testutil.MustWriteFile(t, filepath.Join(root, "wine-arm64-8.0", runtime.NotesFile), []byte("notes = [unterminated"), 0o644)

	got, err := runtime.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Discover() returned %d runtimes, want 1", len(got))
	}
	if got[0].Notes == "" {
		t.Error("malformed runtime.toml should be reported in Notes")
	}
}

func TestOverride(t *testing.T) {
	t.Parallel()

	if _, ok := runtime.Override(""); ok {
		t.Error("Override(\"\") should report false")
	}
	if _, ok := runtime.Override(filepath.Join(t.TempDir(), "nope")); ok {
		t.Error("Override(missing) should report false")
	}

	path := filepath.Join(t.TempDir(), "wine64")
	testutil.MustWriteFile(t, path, []byte("#!/bin/sh\n"), 0o755)
	d, ok := runtime.Override(path)
	if !ok {
		t.Fatal("Override(existing) should report true")
	}
	if d.Channel != "native-arm64" || d.Version != "experimental" || d.Label != "wine arm64 (external)" {
		t.Errorf("Override() = %+v", d)
	}
	if d.Notes != "provided via SILICON_ALLOY_ARM64_WINE64" {
		t.Errorf("Notes = %q", d.Notes)
	}
}

func TestChannelForArch(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"x86_64": "rossetta",
		"arm64":  "native-arm64",
		"i386":   "custom-i386",
		"":       "custom-",
	}
	for arch, want := range tests {
		if got := runtime.ChannelForArch(arch); got != want {
			t.Errorf("ChannelForArch(%q) = %q, want %q", arch, got, want)
		}
	}
}

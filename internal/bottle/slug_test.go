// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"errors"
	"testing"

	"github.com/siliconalloy/alloy/internal/issue"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"My Game", "my-game"},
		{"steam", "steam"},
		{"Half-Life 2", "half-life-2"},
		{"  padded  ", "padded"},
		{"_-edge-_", "edge"},
		{"Café Society", "caf-society"},
		{"a/b\\c", "abc"},
		{"日本語", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()

	if got, err := ParseName("My Game"); err != nil || got != "my-game" {
		t.Errorf("ParseName() = %q, %v", got, err)
	}
	if _, err := ParseName("???"); !errors.Is(err, issue.ErrInvalidInput) {
		t.Errorf("ParseName(\"???\") error = %v, want ErrInvalidInput", err)
	}
}

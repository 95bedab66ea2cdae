// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"strings"

	"github.com/siliconalloy/alloy/internal/issue"
)

// Slug normalizes a display name: ASCII letters are lowercased, digits,
// '-' and '_' are kept, spaces become '-', everything else is dropped, and
// leading or trailing '-'/'_' are trimmed. "My Game!" becomes "my-game".
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-_")
}

// ParseName slugs name and rejects names with nothing usable left.
func ParseName(name string) (string, error) {
	slug := Slug(name)
	if slug == "" {
		return "", issue.InvalidInput("bottle name %q has no letters or digits", name)
	}
	return slug, nil
}

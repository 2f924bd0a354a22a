package sanitize

import (
	"regexp"
	"strings"
)

const (
	// MaxNameLength is the maximum allowed length for a produced name.
	MaxNameLength = 120
	// Fallback is returned when nothing usable survives cleaning.
	Fallback = "download"
)

var (
	blockedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	unsafeRunes  = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// Name maps an arbitrary title to a filesystem-safe stem. The blocked
// characters are removed outright first, then the remainder is reduced
// to a conservative ASCII slug. The result is never empty.
func Name(raw string) string {
	name := blockedChars.ReplaceAllString(raw, "")
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeRunes.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if len(name) > MaxNameLength {
		name = strings.Trim(name[:MaxNameLength], "._")
	}
	if name == "" {
		return Fallback
	}
	return name
}

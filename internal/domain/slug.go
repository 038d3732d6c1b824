package domain

import "strings"

// Slugify derives a URL-safe identifier from a human title: lowercase, runs
// of whitespace become a single hyphen, everything outside [a-z0-9-] is
// stripped. No uniqueness check happens here; the database's unique
// constraint surfaces collisions as ErrConflict at write time. An empty or
// all-punctuation title yields "" and must be rejected by the caller.
func Slugify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	b.Grow(len(lower))
	inSpace := false
	for _, r := range lower {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			if inSpace {
				b.WriteByte('-')
				inSpace = false
			}
			b.WriteRune(r)
		default:
			// dropped
		}
	}
	return b.String()
}

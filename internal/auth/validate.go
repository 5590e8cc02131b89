package auth

import (
	"regexp"
	"strings"
)

// emailPattern is deliberately loose: something before an @, something
// after it, and a dot in the domain. No TLD or length checks.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPassword accepts any non-empty password of 6 to 128 characters.
// No character-class requirements.
func ValidPassword(s string) bool {
	return len(s) >= 6 && len(s) <= 128
}

// Sanitize trims surrounding whitespace and strips every angle bracket.
// This is line-level stripping only, not HTML escaping.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

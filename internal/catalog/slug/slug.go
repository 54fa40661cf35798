// Package slug derives URL identifiers for stores and resolves collisions
// between them.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a name has nothing that survives normalisation.
const Fallback = "store"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// From converts a display name into a lower-cased, hyphen-separated ASCII token.
// Accents are stripped (é → e) before anything outside [a-z0-9] becomes a hyphen.
func From(name string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, name)
	if err != nil {
		result = name
	}

	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if result == "" {
		return Fallback
	}
	return result
}

// Pattern matches the base slug and its numbered variants. Callers apply it
// case-insensitively.
func Pattern(base string) string {
	return fmt.Sprintf(`^(%s)(-[0-9]+)?$`, regexp.QuoteMeta(base))
}

// Candidate applies the counting policy: no matches keeps the base, N matches
// yields base-(N+1). bump moves the suffix further after a lost race.
func Candidate(base string, matches, bump int) string {
	n := matches + bump
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

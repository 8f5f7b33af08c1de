package merchant

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var keyDisallowedRe = regexp.MustCompile(`[^a-z0-9]`)

// diacriticStripper decomposes to NFD and drops combining marks, so
// "Café" and "Cafe" normalize to the same key.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey derives the dedup key for a merchant name: canonicalize,
// lowercase, strip diacritics, then keep only [a-z0-9]. Empty input yields
// an empty key.
func NormalizeKey(raw string) string {
	s := Canonicalize(raw)
	if s == "" {
		s = strings.TrimSpace(raw)
	}
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}
	return keyDisallowedRe.ReplaceAllString(s, "")
}

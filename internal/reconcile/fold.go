package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

// foldText lowercases and strips diacritics so "Photosynthèse" and
// "photosynthese" compare equal.
func foldText(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// conceptKey reduces a matching left-concept to its dedup key: folded,
// with every non-alphanumeric run collapsed to a single underscore.
func conceptKey(value string) string {
	return strings.Trim(nonAlnumPattern.ReplaceAllString(foldText(value), "_"), "_")
}

package exporter

import (
	"strings"
	"unicode"
)

const (
	variationSelector16 = '\uFE0F'
	zeroWidthJoiner     = '\u200D'
)

// StripMarkup turns a decorated recommendation into plain text: bold markers
// and pictographic symbols are removed and whitespace is collapsed.
//
//	StripMarkup("🚨 **Critical**: coverage is low") == "Critical: coverage is low"
func StripMarkup(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Map(func(r rune) rune {
		if r == variationSelector16 || r == zeroWidthJoiner || unicode.Is(unicode.So, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

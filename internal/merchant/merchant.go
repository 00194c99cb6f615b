// Package merchant derives merchant identifiers from free-text statement
// narrations.
package merchant

import (
	"strings"
	"unicode"
)

// Unknown is returned for narrations with no usable token.
const Unknown = ""

// Extract returns a coarse merchant identifier for a narration: the first
// whitespace- or slash-delimited token, lower-cased.
//
// This is a heuristic. Narrations such as "UPI/SWIGGY/..." and
// "POS 1234 SWIGGY" map to different identifiers, and unrelated merchants
// sharing a leading word are grouped together. Limit evaluation and recurring
// payment detection both go through this function so a more precise extractor
// can replace it in one place.
func Extract(details string) string {
	fields := strings.FieldsFunc(details, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return Unknown
	}
	return strings.ToLower(fields[0])
}

// Matches reports whether details belongs to the merchant identifier id.
func Matches(details, id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return id != Unknown && Extract(details) == id
}

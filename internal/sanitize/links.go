// Package sanitize makes message text safe to show during review.
package sanitize

import (
	"regexp"
)

// LinkMarker replaces every censored URL
const LinkMarker = "[link censored]"

// linkPattern matches http and https URLs not preceded by a letter, digit or underscore
// in any script. Group 1 holds that preceding character, which is kept.
// The last character may not be trailing punctuation or a closing bracket.
var linkPattern = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])https?://[^\s)>\],;]+[^\s)>\],;.!?]`)

// CensorLinks replaces URL-like substrings with LinkMarker, leaving all other text as is
func CensorLinks(text string) string {
	return linkPattern.ReplaceAllString(text, "${1}"+LinkMarker)
}

// CountLinks returns the number of URLs CensorLinks would replace
func CountLinks(text string) int {
	return len(linkPattern.FindAllStringIndex(text, -1))
}

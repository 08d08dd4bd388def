// campusvoice/utils/utils.go
package utils

import (
	"unicode/utf8"
)

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// RuneLen is the length of s in characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

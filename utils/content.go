// campusvoice/utils/content.go
package utils

import (
	"html"
	"strings"
	"unicode"

	goaway "github.com/TwiN/go-away"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// CleanText strips all markup from user or model supplied text and trims
// surrounding whitespace. Entities escaped by the sanitizer are restored since
// the output is served as JSON, not HTML.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// profanityFilter screens whole strings before the per-word check. Spaces
// are kept so that words stay apart.
var profanityFilter = goaway.NewProfanityDetector().WithSanitizeSpaces(false)

// inflections are the endings a dictionary stem may carry and still count as
// the same word ("fucking", "bitches", "asshole").
var inflections = map[string]bool{
	"": true, "s": true, "es": true, "ed": true, "er": true, "ers": true,
	"ing": true, "ings": true, "y": true, "ty": true, "ie": true, "ies": true,
	"e": true, "ion": true, "ions": true, "hole": true, "holes": true,
	"head": true, "heads": true,
}

// IsProfane reports whether any of the given strings contains a profane word.
// Matching is per word, so "assessment", "Hancock" and "Essex" pass.
func IsProfane(texts ...string) bool {
	for _, t := range texts {
		if t == "" || !profanityFilter.IsProfane(t) {
			continue
		}
		for _, w := range profanityWords(t) {
			if isProfaneWord(w) {
				return true
			}
		}
	}
	return false
}

// profanityWords lowercases s, undoes leetspeak inside each word and splits
// it into words. Trailing punctuation is dropped first so "shit!" stays "shit".
func profanityWords(s string) []string {
	var words []string
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.TrimRight(tok, "!?.,;:'\")")
		var sb strings.Builder
		for _, r := range tok {
			if repl, ok := goaway.DefaultCharacterReplacements[r]; ok {
				r = repl
			}
			sb.WriteRune(r)
		}
		words = append(words, strings.FieldsFunc(sb.String(), func(r rune) bool { return !unicode.IsLetter(r) })...)
	}
	return words
}

func isProfaneWord(w string) bool {
	for _, fn := range goaway.DefaultFalseNegatives {
		if strings.Contains(w, fn) {
			return true
		}
	}
	for _, fp := range goaway.DefaultFalsePositives {
		if strings.HasPrefix(w, fp) {
			return false
		}
	}
	for _, p := range goaway.DefaultProfanities {
		if strings.HasPrefix(w, p) && inflections[w[len(p):]] {
			return true
		}
	}
	return false
}

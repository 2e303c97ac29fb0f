package donation

import (
	"iter"
	"regexp"
)

// DefaultToken stands in for an amount the page did not contain.
const DefaultToken = "$0"

// moneyPattern matches a dollar sign, an optional space, digits optionally
// grouped with commas and an optional decimal fraction.
var moneyPattern = regexp.MustCompile(`\$\s?[\d,]+(?:\.\d+)?`)

// Matches returns every non-overlapping currency token in text, in
// left-to-right document order.
//
// The sequence is lazy: the text is only scanned as far as the consumer
// pulls. Ranging over the returned sequence again rescans from the start and
// yields the same tokens.
func Matches(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		offset := 0
		for offset <= len(text) {
			loc := moneyPattern.FindStringIndex(text[offset:])
			if loc == nil {
				return
			}
			if !yield(text[offset+loc[0] : offset+loc[1]]) {
				return
			}
			offset += loc[1]
		}
	}
}

// Extract returns the first two currency tokens of text as the raised and
// goal tokens. Missing tokens default to DefaultToken.
func Extract(text string) (raised, goal string) {
	raised, goal = DefaultToken, DefaultToken

	n := 0
	for token := range Matches(text) {
		if n == 0 {
			raised = token
		} else {
			goal = token
		}
		n++
		if n == 2 {
			break
		}
	}

	return raised, goal
}

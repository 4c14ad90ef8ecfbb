// Package textnorm normalises text for lexical matching.
//
// Matching is case-insensitive and diacritic-insensitive, so "Jubilación"
// and "jubilacion" produce the same token. Common Spanish and English
// function words are dropped so they do not inflate overlap scores.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen drops single-letter tokens such as articles and list markers.
const minTokenLen = 2

var stopwords = map[string]struct{}{
	// Spanish
	"de": {}, "la": {}, "el": {}, "en": {}, "los": {}, "las": {}, "del": {},
	"al": {}, "un": {}, "una": {}, "unos": {}, "unas": {}, "por": {}, "con": {},
	"para": {}, "que": {}, "se": {}, "su": {}, "sus": {}, "lo": {}, "le": {},
	"les": {}, "es": {}, "son": {}, "como": {}, "mas": {}, "pero": {}, "sin": {},
	"sobre": {}, "este": {}, "esta": {}, "estos": {}, "estas": {}, "ese": {},
	"esa": {}, "cual": {}, "cuales": {}, "cuando": {}, "donde": {}, "ya": {},
	"ni": {}, "no": {}, "si": {}, "muy": {}, "entre": {}, "hasta": {},
	// English
	"the": {}, "of": {}, "and": {}, "or": {}, "to": {}, "in": {}, "on": {},
	"for": {}, "is": {}, "are": {}, "was": {}, "be": {}, "by": {}, "with": {},
	"an": {}, "as": {}, "at": {}, "it": {}, "its": {}, "this": {}, "that": {},
	"from": {}, "what": {}, "which": {}, "who": {}, "how": {}, "when": {},
	"not": {}, "do": {}, "does": {},
}

// TopicKey is the comparison key for topic tags. Tags that differ only in
// case, accents or surrounding space share a key.
func TopicKey(s string) string {
	return Fold(strings.TrimSpace(s))
}

// Fold lowercases s and strips combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits s into folded word tokens, in order, with duplicates.
// Stopwords and single-character tokens are removed.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < minTokenLen {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TermSet returns the distinct tokens of s.
func TermSet(s string) map[string]struct{} {
	tokens := Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Overlap returns the fraction of query terms present in the text terms.
// It is 0 when query has no terms.
func Overlap(query, text map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for term := range query {
		if _, ok := text[term]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// Package query prepares raw query text for submission to a full-text backend.
package query

import "strings"

// SpecialChars are the operator characters of Lucene-style query parsers
// (Elasticsearch query_string, tantivy). Normalize blanks each of them.
const SpecialChars = `+-!(){}[]^"~*?:\<`

var replacer = newReplacer()

func newReplacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(SpecialChars))
	for _, r := range SpecialChars {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}

// Normalize replaces every special character with a single space. All other
// characters, including runs of whitespace, are kept as they are.
func Normalize(raw string) string {
	return replacer.Replace(raw)
}

// NormalizeAll normalizes a batch of query texts, preserving order.
func NormalizeAll(raw []string) []string {
	out := make([]string, len(raw))
	for i, q := range raw {
		out[i] = Normalize(q)
	}
	return out
}

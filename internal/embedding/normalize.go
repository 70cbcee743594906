// Package embedding turns record text into fixed-dimension vectors:
// normalize, chunk by token budget, encode each chunk over HTTP, mean-pool
// the chunk vectors.  Any failure degrades to a zero vector so embedding can
// never abort record extraction.
package embedding

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PlaceholderText stands in for empty or missing input.  Encoding a real
// sentence keeps the encoder happy; an empty prompt would be rejected.
const PlaceholderText = "No text provided"

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s_]+`)

// Normalize lowercases the text, strips punctuation, drops stopwords and
// reduces each remaining word to a base form.  Empty or whitespace-only
// input yields PlaceholderText untouched.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return PlaceholderText
	}
	text = norm.NFC.String(strings.ToLower(text))
	text = punctuation.ReplaceAllString(text, "")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if englishStopwords[w] {
			continue
		}
		kept = append(kept, lemmatize(w))
	}
	if len(kept) == 0 {
		return PlaceholderText
	}
	return strings.Join(kept, " ")
}

// lemmatize applies plural-suffix reduction.  It is a deliberately small
// rule set, not a dictionary lemmatizer: patent prose is dominated by
// regular noun plurals and the encoder tolerates the residue.
func lemmatize(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "ss"):
		return w
	case len(w) > 3 && strings.HasSuffix(w, "us"):
		return w
	case len(w) > 2 && strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	default:
		return w
	}
}

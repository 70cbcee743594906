// Package uspto splits USPTO bulk grant files into individual patent
// documents and extracts flat grant records from each.
package uspto

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// A bulk grant file is many complete XML documents concatenated into one
// blob.  Each document carries its own declaration and DOCTYPE, so a span
// from one declaration through the matching us-patent-* close tag is a
// self-contained document.  A truncated trailing fragment simply does not
// match and is dropped without error.
var documentPattern = regexp.MustCompile(
	`(?s)<\?xml[^>]+>\s*<!DOCTYPE[^>]+>\s*<us-patent-[a-z-]+[^>]*>.*?</us-patent-[a-z-]+>`,
)

// Decode interprets raw file bytes as UTF-8, falling back to Latin-1 when
// the bytes are not valid UTF-8.  The fallback maps every byte to a code
// point, so decoding never fails.
func Decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Split returns the individual patent document substrings of a decoded bulk
// file, non-overlapping and in document order.
func Split(content string) []string {
	return documentPattern.FindAllString(content, -1)
}

package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameFolder strips combining marks so accented and unaccented spellings of
// the same name produce the same key (JOÃO -> JOAO).
var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a raw name into the form used for identity
// comparison: upper-cased, diacritics removed, interior whitespace collapsed.
func NormalizeName(name string) string {
	folded, _, err := transform.String(nameFolder, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToUpper(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeDigits strips formatting punctuation from a registration number or
// tax id ("00.000.000/0001-00" -> "00000000000100"). Returns the empty string
// when the token contains any non-format, non-digit character.
func NormalizeDigits(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
			// registration-number punctuation, ignored
		default:
			return ""
		}
	}
	return b.String()
}

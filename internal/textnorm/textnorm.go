package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes runes and drops the combining marks, so
// "ñ" -> "n", "á" -> "a".
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, removes everything outside
// [a-z0-9 ], collapses whitespace and trims. Pure and idempotent; every
// matching stage compares normalized text, never raw input.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall through with the
		// lowered input and let the filter below drop the bad bytes.
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Fold lowercases and strips diacritics but keeps digits and separators,
// so fractional quantities like "1.5" survive pattern extraction.
func Fold(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// Singularize folds the Spanish "-ces" plural back to its "-z" singular
// ("arroces" -> "arroz") and strips a "-es" after a consonant
// ("papeles" -> "papel"). Anything else is returned unchanged; a bare
// trailing "s" is left alone because typo'd words like "arros" must stay
// intact for fuzzy matching.
func Singularize(word string) string {
	if len(word) >= 5 && strings.HasSuffix(word, "ces") {
		return word[:len(word)-3] + "z"
	}
	if len(word) >= 5 && strings.HasSuffix(word, "es") {
		prev := word[len(word)-3]
		if !isVowel(prev) && prev != 's' {
			return word[:len(word)-2]
		}
	}
	return word
}

func isVowel(b byte) bool {
	return b == 'a' || b == 'e' || b == 'i' || b == 'o' || b == 'u'
}

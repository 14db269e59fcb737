package fetch

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripCombiningMarks removes Unicode combining marks (category Mn) after
// NFKD decomposition, the ASCII-transliteration step surname keys rely on.
var stripCombiningMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SynthesizeKey builds a references.bib citation key: lower-cased
// first-author surname + year; "n.d." when year is zero; non-ASCII
// surnames are transliterated via NFKD + diacritic strip; an empty result
// after transliteration falls back to ref{n:03d}.
func SynthesizeKey(authors string, year int, ordinal int) string {
	surname := firstAuthorSurname(authors)

	transliterated, _, err := transform.String(stripCombiningMarks, surname)

	slug := asciiOnly(transliterated)
	if err != nil || slug == "" {
		return fmt.Sprintf("ref%03d", ordinal)
	}

	yearPart := "n.d."
	if year != 0 {
		yearPart = fmt.Sprintf("%d", year)
	}

	return strings.ToLower(slug) + yearPart
}

// firstAuthorSurname extracts the surname of the first author from a joined
// author string like "Smith, John and Doe, Jane" or "John Smith and Jane Doe".
func firstAuthorSurname(authors string) string {
	first := authors

	for _, sep := range []string{" and ", ";"} {
		if idx := strings.Index(first, sep); idx >= 0 {
			first = first[:idx]
		}
	}

	first = strings.TrimSpace(first)

	if idx := strings.Index(first, ","); idx >= 0 {
		return strings.TrimSpace(first[:idx])
	}

	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}

	return fields[len(fields)-1]
}

// asciiOnly keeps only ASCII letters and digits, for use as a bare citation
// key component.
func asciiOnly(s string) string {
	var buf strings.Builder

	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

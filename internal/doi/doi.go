// Package doi implements the DOI normalization rule applied identically
// everywhere a DOI is compared across the pipeline (bibliography keys,
// front-matter headers, provider responses).
package doi

import "strings"

var stripPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"doi:",
}

// Normalize lower-cases s and strips a leading "https://doi.org/",
// "http://doi.org/" or "doi:" prefix, then requires the remainder to begin
// with "10.". Returns ok=false when the result doesn't satisfy that shape.
func Normalize(s string) (normalized string, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))

	for _, prefix := range stripPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]

			break
		}
	}

	if !strings.HasPrefix(s, "10.") {
		return "", false
	}

	return s, true
}

// Package quality implements the reference-list quality scorer: a scalar
// in [0,1] used to gate provider fallback.
package quality

import (
	"strings"

	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/doi"
)

const (
	weightRequired  = 0.40
	weightPreferred = 0.20
	weightValidity  = 0.30
	weightRichness  = 0.10

	minYear = 1800
	maxYear = 2030

	minTitleLen = 10
	maxTitleLen = 500

	minAuthorLen = 3
)

// Score returns the list-level quality score: the mean of each reference's
// per-reference score, or 0 for an empty list.
func Score(refs []providers.Reference) float64 {
	if len(refs) == 0 {
		return 0
	}

	total := 0.0
	for _, r := range refs {
		total += scoreOne(r)
	}

	return total / float64(len(refs))
}

func scoreOne(r providers.Reference) float64 {
	return requiredScore(r)*weightRequired +
		preferredScore(r)*weightPreferred +
		validityScore(r)*weightValidity +
		richnessScore(r)*weightRichness
}

func requiredScore(r providers.Reference) float64 {
	present := 0

	if r.Title != "" {
		present++
	}

	if r.Authors != "" {
		present++
	}

	if r.Year != 0 {
		present++
	}

	return float64(present) / 3
}

func preferredFieldsPresent(r providers.Reference) (present, total int) {
	fields := []string{r.DOI, r.Journal, r.Volume, r.Pages}
	total = len(fields) + 1 // +1 for publisher, which Reference does not model separately

	for _, f := range fields {
		if f != "" {
			present++
		}
	}

	return present, total
}

func preferredScore(r providers.Reference) float64 {
	present, total := preferredFieldsPresent(r)

	return float64(present) / float64(total)
}

func validityScore(r providers.Reference) float64 {
	checks := 0
	passed := 0

	checks++
	if r.Year >= minYear && r.Year <= maxYear {
		passed++
	}

	checks++
	if _, ok := doi.Normalize(r.DOI); ok {
		passed++
	}

	checks++
	if len(r.Title) >= minTitleLen && len(r.Title) <= maxTitleLen {
		passed++
	}

	checks++
	if len(r.Authors) >= minAuthorLen && hasAuthorSeparator(r.Authors) {
		passed++
	}

	return float64(passed) / float64(checks)
}

func hasAuthorSeparator(authors string) bool {
	for _, sep := range []string{",", ";", " and "} {
		if strings.Contains(authors, sep) {
			return true
		}
	}

	return len(strings.Fields(authors)) >= 2
}

func richnessScore(r providers.Reference) float64 {
	present, total := preferredFieldsPresent(r)
	requiredPresent := requiredScore(r) * 3

	fraction := (float64(present) + requiredPresent) / (float64(total) + 3)

	if r.URL != "" {
		fraction += 0.10
	}

	if r.Abstract != "" {
		fraction += 0.10
	}

	if r.Keywords != "" {
		fraction += 0.05
	}

	if fraction > 1 {
		fraction = 1
	}

	return fraction
}

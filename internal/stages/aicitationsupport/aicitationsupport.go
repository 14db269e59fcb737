// Package aicitationsupport implements the ai_citation_support stage:
// cross-referencing normalized in-text citation numbers against the
// fetched citations map.
package aicitationsupport

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shuu5/obsclip/internal/orderedmap"
)

// bracketCitation matches a normalized bracket citation group, e.g.
// "[1,2,3]" or "[7]".
var bracketCitation = regexp.MustCompile(`\[(\d+(?:,\d+)*)\]`)

// Check is the outcome of cross-referencing a paper's body against its
// citations map.
type Check struct {
	DanglingCitations []int
	UnusedReferences  []int
}

// Run scans body for bracketed citation numbers and compares them against
// the ordinals present in the citations front-matter map: a numeral with no
// matching citations[n] entry is "dangling"; a citations entry never
// referenced in the body is "unused".
func Run(body string, citations *orderedmap.Map) Check {
	referenced := map[int]bool{}

	for _, m := range bracketCitation.FindAllStringSubmatch(body, -1) {
		for _, numStr := range splitNumbers(m[1]) {
			if n, err := strconv.Atoi(numStr); err == nil {
				referenced[n] = true
			}
		}
	}

	known := map[int]bool{}

	if citations != nil {
		for _, key := range citations.Keys() {
			if n, err := strconv.Atoi(key); err == nil {
				known[n] = true
			}
		}
	}

	var check Check

	for n := range referenced {
		if !known[n] {
			check.DanglingCitations = append(check.DanglingCitations, n)
		}
	}

	for n := range known {
		if !referenced[n] {
			check.UnusedReferences = append(check.UnusedReferences, n)
		}
	}

	sortInts(check.DanglingCitations)
	sortInts(check.UnusedReferences)

	return check
}

func splitNumbers(group string) []string {
	var out []string

	start := 0

	for i := 0; i <= len(group); i++ {
		if i == len(group) || group[i] == ',' {
			if i > start {
				out = append(out, group[start:i])
			}

			start = i + 1
		}
	}

	return out
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ApplyToHeader writes the citation_support section and advances
// processing_status.ai_citation_support.
func ApplyToHeader(header *orderedmap.Map, check Check, now time.Time) {
	section := orderedmap.New()
	section.Set("checked_at", now.Format(time.RFC3339Nano))
	section.Set("dangling_citations", toAnySlice(check.DanglingCitations))
	section.Set("unused_references", toAnySlice(check.UnusedReferences))

	header.Set("citation_support", section)

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("ai_citation_support", "completed")
}

func toAnySlice(ints []int) []any {
	out := make([]any, len(ints))
	for i, n := range ints {
		out[i] = n
	}

	return out
}

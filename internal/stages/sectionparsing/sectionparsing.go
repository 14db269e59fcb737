// Package sectionparsing implements the section_parsing stage: a
// heading-driven scanner that classifies a paper body into the
// paper_structure front-matter section.
package sectionparsing

import (
	"regexp"
	"strings"
	"time"

	"github.com/shuu5/obsclip/internal/orderedmap"
)

// SectionTypes is the fixed classification vocabulary.
var SectionTypes = []string{
	"abstract", "introduction", "related_work", "methods", "results",
	"discussion", "conclusion", "references", "appendix", "other",
}

// keywordsByType maps each non-"other" section type to the heading
// substrings (case-insensitive) that classify it.
var keywordsByType = map[string][]string{
	"abstract":     {"abstract", "summary"},
	"introduction": {"introduction", "background"},
	"related_work": {"related work", "prior work", "literature review"},
	"methods":      {"method", "methodology", "approach", "materials"},
	"results":      {"result", "experiment", "evaluation", "finding"},
	"discussion":   {"discussion"},
	"conclusion":   {"conclusion", "concluding remarks", "future work"},
	"references":   {"reference", "bibliography"},
	"appendix":     {"appendix", "supplementary"},
}

var headingLine = regexp.MustCompile(`^(#{1,6})\s+(.*\S)\s*$`)

// Section is one parsed heading span.
type Section struct {
	SectionType string
	Title       string
	Level       int
	StartLine   int
	EndLine     int
	WordCount   int
	Subsections []Section
}

// Parse scans body (the paper's content, post front-matter) for Markdown
// ATX headings and returns the top-level sections with one level of
// nesting: a heading at level N+1 between two level-N headings becomes a
// subsection of the preceding level-N section.
func Parse(body string) []Section {
	lines := strings.Split(body, "\n")

	type heading struct {
		level int
		title string
		line  int
	}

	var headings []heading

	for i, line := range lines {
		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		headings = append(headings, heading{level: len(m[1]), title: m[2], line: i + 1})
	}

	if len(headings) == 0 {
		return nil
	}

	var top []Section

	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line - 1
		}

		sec := Section{
			SectionType: classify(h.title),
			Title:       h.title,
			Level:       h.level,
			StartLine:   h.line,
			EndLine:     end,
			WordCount:   wordCount(lines, h.line, end),
		}

		if len(top) > 0 && h.level > top[len(top)-1].Level {
			parent := &top[len(top)-1]
			parent.Subsections = append(parent.Subsections, sec)

			continue
		}

		top = append(top, sec)
	}

	return top
}

func classify(title string) string {
	lower := strings.ToLower(title)

	for _, t := range SectionTypes {
		for _, kw := range keywordsByType[t] {
			if strings.Contains(lower, kw) {
				return t
			}
		}
	}

	return "other"
}

func wordCount(lines []string, start, end int) int {
	if start < 1 {
		start = 1
	}

	if end > len(lines) {
		end = len(lines)
	}

	count := 0

	for i := start; i <= end && i <= len(lines); i++ {
		count += len(strings.Fields(lines[i-1]))
	}

	return count
}

// ApplyToHeader writes the paper_structure section and advances
// processing_status.section_parsing.
func ApplyToHeader(header *orderedmap.Map, sections []Section, now time.Time) {
	seen := map[string]bool{}

	entries := make([]any, 0, len(sections))

	for _, s := range sections {
		entries = append(entries, sectionToMap(s))
		seen[s.SectionType] = true

		for _, sub := range s.Subsections {
			seen[sub.SectionType] = true
		}
	}

	typesFound := make([]any, 0, len(seen))
	for _, t := range SectionTypes {
		if seen[t] {
			typesFound = append(typesFound, t)
		}
	}

	structure := orderedmap.New()
	structure.Set("parsed_at", now.Format(time.RFC3339Nano))
	structure.Set("total_sections", len(sections))
	structure.Set("section_types_found", typesFound)
	structure.Set("sections", entries)

	header.Set("paper_structure", structure)

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("section_parsing", "completed")
}

func sectionToMap(s Section) *orderedmap.Map {
	m := orderedmap.New()
	m.Set("section_type", s.SectionType)
	m.Set("title", s.Title)
	m.Set("start_line", s.StartLine)
	m.Set("end_line", s.EndLine)
	m.Set("word_count", s.WordCount)

	if len(s.Subsections) > 0 {
		subs := make([]any, 0, len(s.Subsections))
		for _, sub := range s.Subsections {
			subs = append(subs, sectionToMap(sub))
		}

		m.Set("subsections", subs)
	}

	return m
}

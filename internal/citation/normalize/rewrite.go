package normalize

import "sort"

// Replacement records one span rewritten in the body, for the
// citation_normalization front-matter section.
type Replacement struct {
	Original    string
	Canonical   string
	Position    int
	Description string
}

// applyPatterns runs p's patterns against body in right-to-left order (by
// match start offset, descending) so earlier splices don't invalidate later
// match offsets, and returns the rewritten body plus a record of each
// replacement made, in left-to-right (document) order.
func applyPatterns(body string, p *ParserConfig) (string, []Replacement, error) {
	patterns, err := p.compiledPatterns()
	if err != nil {
		return body, nil, err
	}

	type match struct {
		start, end int
		rendered   string
		original   string
		desc       string
	}

	var matches []match

	for _, pat := range patterns {
		locs := pat.compiled.FindAllStringSubmatchIndex(body, -1)

		for _, loc := range locs {
			start, end := loc[0], loc[1]

			numberList := ""
			if len(loc) >= 4 && loc[2] >= 0 {
				numberList = body[loc[2]:loc[3]]
			}

			expanded := expandRangesInList(numberList)
			numbers := splitNumbers(expanded)

			matches = append(matches, match{
				start:    start,
				end:      end,
				rendered: renderTemplate(pat.Replacement, numbers),
				original: body[start:end],
				desc:     pat.Description,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start > matches[j].start })

	var records []Replacement

	out := body

	for _, m := range matches {
		out = out[:m.start] + m.rendered + out[m.end:]

		records = append(records, Replacement{
			Original:    m.original,
			Canonical:   m.rendered,
			Position:    m.start,
			Description: m.desc,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	return out, records, nil
}

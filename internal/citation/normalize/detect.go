package normalize

import (
	"sort"
	"strings"

	"github.com/shuu5/obsclip/internal/orderedmap"
)

// SelectParser runs the 4-tier publisher detection cascade:
// (1) header.publisher case-insensitive substring match against a parser
// name, (2) DOI prefix match, (3) journal keyword match against title/journal,
// (4) the registered fallback parser, defaulting to "generic". Each tier
// walks parsers in sorted-name order so that two parsers matching the same
// paper at the same tier resolve to the same winner on every run, rather
// than depending on Go's randomized map iteration order.
func SelectParser(reg *Registry, header *orderedmap.Map, doi, title, journal string) string {
	names := sortedParserNames(reg)
	publisher := header.GetString("publisher")

	if publisher != "" {
		for _, name := range names {
			if containsFold(publisher, name) {
				return name
			}
		}
	}

	if doi != "" {
		for _, name := range names {
			for _, prefix := range reg.Parsers[name].Detection.DOIPrefixes {
				if prefix != "" && strings.HasPrefix(doi, prefix) {
					return name
				}
			}
		}
	}

	for _, name := range names {
		for _, kw := range reg.Parsers[name].Detection.JournalKeywords {
			if kw == "" {
				continue
			}

			if containsFold(title, kw) || containsFold(journal, kw) {
				return name
			}
		}
	}

	for _, name := range names {
		if reg.Parsers[name].Detection.Fallback {
			return name
		}
	}

	return "generic"
}

// sortedParserNames returns reg's parser names in a stable, deterministic
// order.
func sortedParserNames(reg *Registry) []string {
	names := make([]string, 0, len(reg.Parsers))
	for name := range reg.Parsers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

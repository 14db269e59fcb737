package normalize

import (
	"time"

	"github.com/shuu5/obsclip/internal/orderedmap"
)

// Options configures one Normalize call.
type Options struct {
	Registry  *Registry
	Log       *UnknownPatternLog
	Path      string // identifies the paper being normalized, for Log entries
	ParserFor func(header *orderedmap.Map, doi, title, journal string) string
}

// Result is the outcome of normalizing one paper's body.
type Result struct {
	Body         string
	Parser       string
	Replacements []Replacement
	Unknown      []Suggestion
}

// Normalize runs the full rewrite pipeline on body: pre-clean link wrappers,
// collapse superscripts, select and apply a publisher's patterns, then scan
// for un-normalized shapes left behind. It is idempotent: running it again
// over its own output with the same registry yields zero new replacements,
// since pre-clean and the built-in superscript collapse are no-ops on
// already-bracketed text and publisher patterns match the publishers' raw
// syntax, not the bracket form they rewrite to.
func Normalize(body string, header *orderedmap.Map, doi, title, journal string, opts Options) (Result, error) {
	selector := opts.ParserFor
	if selector == nil {
		selector = func(h *orderedmap.Map, d, t, j string) string {
			return SelectParser(opts.Registry, h, d, t, j)
		}
	}

	parserName := selector(header, doi, title, journal)

	parser, ok := opts.Registry.Parsers[parserName]
	if !ok {
		parser = opts.Registry.Parsers["generic"]
		parserName = "generic"
	}

	body = preClean(body)

	superscriptRewritten, superscriptRecords := collapseSuperscripts(body)
	body = superscriptRewritten

	rewritten, records, err := applyPatterns(body, parser)
	if err != nil {
		return Result{}, err
	}

	all := append(superscriptRecords, records...)

	unknown := FindUnknownPatterns(rewritten)

	if len(unknown) > 0 && opts.Log != nil {
		_ = opts.Log.Append(UnknownPatternLogEntry{
			Timestamp:   time.Now(),
			Path:        opts.Path,
			Suggestions: unknown,
		})
	}

	return Result{
		Body:         rewritten,
		Parser:       parserName,
		Replacements: all,
		Unknown:      unknown,
	}, nil
}

// ApplyToHeader writes the citation_normalization section and advances
// processing_status.citation_pattern_normalizer.
func ApplyToHeader(header *orderedmap.Map, result Result, now time.Time) {
	entries := make([]any, 0, len(result.Replacements))

	for _, r := range result.Replacements {
		entry := orderedmap.New()
		entry.Set("original", r.Original)
		entry.Set("normalized", r.Canonical)
		entry.Set("position", r.Position)
		entry.Set("pattern_description", r.Description)

		entries = append(entries, entry)
	}

	section := orderedmap.New()
	section.Set("generated_at", now.Format(time.RFC3339Nano))
	section.Set("publisher_detected", result.Parser)
	section.Set("parser_used", result.Parser)
	section.Set("patterns_normalized", entries)
	section.Set("total_citations_normalized", len(entries))

	header.Set("citation_normalization", section)

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("citation_pattern_normalizer", "completed")
}

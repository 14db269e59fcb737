package normalize

import "regexp"

var (
	// markdownLinkCitation matches a markdown link whose label is itself a
	// bracketed citation, e.g. "[[1]](#ref1)" -> "[1]".
	markdownLinkCitation = regexp.MustCompile(`\[(\[[^\]]+\])\]\([^)]*\)`)

	// htmlAnchorWrapper strips an <a>...</a> wrapper around its text content.
	htmlAnchorWrapper = regexp.MustCompile(`(?s)<a[^>]*>([^<]*)</a>`)

	// doubleBracket flattens a redundant nested bracket, e.g. "[[1]]" -> "[1]".
	doubleBracket = regexp.MustCompile(`\[\[(\d+)\]\]`)

	// footnoteMarkerGroup collapses a bracketed group of footnote-style
	// markers like "[[^1],[^2],[^3]]" into "[1,2,3]".
	footnoteMarkerGroup = regexp.MustCompile(`\[((?:\[\^\d+\],?)+)\]`)

	footnoteMarker = regexp.MustCompile(`\[\^(\d+)\]`)
)

// preClean strips link wrappers and footnote-marker syntax that would
// otherwise hide citation numbers from the publisher pattern rules. It runs
// before publisher-specific patterns.
func preClean(body string) string {
	body = markdownLinkCitation.ReplaceAllString(body, "$1")
	body = htmlAnchorWrapper.ReplaceAllString(body, "$1")
	body = doubleBracket.ReplaceAllString(body, "[$1]")

	body = footnoteMarkerGroup.ReplaceAllStringFunc(body, func(group string) string {
		nums := footnoteMarker.FindAllStringSubmatch(group, -1)

		joined := ""

		for i, m := range nums {
			if i > 0 {
				joined += ","
			}

			joined += m[1]
		}

		return "[" + joined + "]"
	})

	body = footnoteMarker.ReplaceAllString(body, "[$1]")

	return body
}

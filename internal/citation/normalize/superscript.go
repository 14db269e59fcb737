package normalize

import "strings"

// superscriptDigits maps Unicode superscript digit runes to their ASCII
// digit equivalents.
var superscriptDigits = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
}

// collapseSuperscripts rewrites runs of superscript digits into bracketed
// ASCII numbers, returning the rewritten text and a record of each run
// rewritten. Adjacent superscript digits with no separator become separate
// comma-joined numbers, e.g. "text¹²" (refs 1 and 2, not twelve) becomes
// "text[1,2]", since each superscript digit marks one citation.
func collapseSuperscripts(s string) (string, []Replacement) {
	var out strings.Builder

	var records []Replacement

	runes := []rune(s)

	byteOffset := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if _, isSuper := superscriptDigits[r]; !isSuper {
			out.WriteRune(r)
			byteOffset += len(string(r))

			continue
		}

		start := i

		var nums []string

		var runBuf strings.Builder

		for i < len(runes) {
			d, ok := superscriptDigits[runes[i]]
			if !ok {
				break
			}

			nums = append(nums, string(d))
			runBuf.WriteRune(runes[i])
			i++
		}

		i--

		rendered := "[" + strings.Join(nums, ",") + "]"

		records = append(records, Replacement{
			Original:    runBuf.String(),
			Canonical:   rendered,
			Position:    byteOffset,
			Description: "superscript citation markers collapsed to bracket form",
		})

		out.WriteString(rendered)
		byteOffset += len(rendered)

		_ = start
	}

	return out.String(), records
}

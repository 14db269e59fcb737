package normalize

import (
	"strconv"
	"strings"
)

// maxRangeSpan bounds range expansion: a range is only expanded when
// end-start <= 100 and start <= end; wider or inverted ranges are left
// untouched to avoid pathological output.
const maxRangeSpan = 100

// expandRange turns "1-5" into "1,2,3,4,5". Returns the input unchanged
// (ok=false) if it isn't a valid, in-bounds numeric range.
func expandRange(s string) (string, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return s, false
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))

	if err1 != nil || err2 != nil {
		return s, false
	}

	if start > end || end-start > maxRangeSpan {
		return s, false
	}

	nums := make([]string, 0, end-start+1)

	for n := start; n <= end; n++ {
		nums = append(nums, strconv.Itoa(n))
	}

	return strings.Join(nums, ","), true
}

// expandRangesInList expands every range segment within a comma-separated
// citation number list, e.g. "1,3-5,8" -> "1,3,4,5,8".
func expandRangesInList(list string) string {
	segments := strings.Split(list, ",")
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)

		if expanded, ok := expandRange(seg); ok {
			out = append(out, expanded)

			continue
		}

		out = append(out, seg)
	}

	return strings.Join(out, ",")
}

func renderTemplate(replacement string, numbers []string) string {
	single := ""
	if len(numbers) > 0 {
		single = numbers[0]
	}

	out := strings.ReplaceAll(replacement, "{number}", single)
	out = strings.ReplaceAll(out, "{numbers}", strings.Join(numbers, ","))

	return out
}

func splitNumbers(list string) []string {
	raw := strings.Split(list, ",")
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}

	return out
}

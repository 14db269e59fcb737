package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuu5/obsclip/internal/citation/normalize"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

func TestSelectParserBreaksTiesDeterministically(t *testing.T) {
	t.Parallel()

	reg := &normalize.Registry{
		Parsers: map[string]*normalize.ParserConfig{
			"zeta": {
				Detection: normalize.Detection{DOIPrefixes: []string{"10.1000"}},
				Patterns:  []normalize.PatternConfig{{Regex: `x`, Replacement: "x", Description: "d"}},
			},
			"alpha": {
				Detection: normalize.Detection{DOIPrefixes: []string{"10.1000"}},
				Patterns:  []normalize.PatternConfig{{Regex: `x`, Replacement: "x", Description: "d"}},
			},
		},
	}

	header := orderedmap.New()

	for i := 0; i < 20; i++ {
		got := normalize.SelectParser(reg, header, "10.1000/example", "", "")
		assert.Equal(t, "alpha", got, "the same DOI-prefix tie must resolve to the same parser on every call")
	}
}

func TestSelectParserFallsBackToGeneric(t *testing.T) {
	t.Parallel()

	reg := &normalize.Registry{Parsers: map[string]*normalize.ParserConfig{}}
	header := orderedmap.New()

	assert.Equal(t, "generic", normalize.SelectParser(reg, header, "10.9999/unmatched", "", ""))
}

package quality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/citation/quality"
)

func TestScoreEmptyListIsZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, quality.Score(nil))
}

func TestScoreRichReferenceScoresHigh(t *testing.T) {
	t.Parallel()

	refs := []providers.Reference{
		{
			Title:   "A Sufficiently Long and Descriptive Title About Testing",
			Authors: "Smith, John and Doe, Jane",
			Year:    2023,
			Journal: "Journal of Testing",
			Volume:  "12",
			Pages:   "1-10",
			DOI:     "10.1038/example",
			URL:     "https://example.com",
			Abstract: "An abstract.",
			Keywords: "testing, quality",
		},
	}

	score := quality.Score(refs)
	assert.Greater(t, score, 0.8)
}

func TestScoreSparseReferenceScoresLow(t *testing.T) {
	t.Parallel()

	refs := []providers.Reference{{Title: "x"}}

	score := quality.Score(refs)
	assert.Less(t, score, 0.2)
}

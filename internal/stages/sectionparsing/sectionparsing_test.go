package sectionparsing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/orderedmap"
	"github.com/shuu5/obsclip/internal/stages/sectionparsing"
)

const body = `# Abstract
This is the abstract text with five words.

# Introduction
Intro text here.

## Related Work
Prior work discussion.

# Methods
Our approach.

# Conclusion
Done.
`

func TestParseClassifiesAndNests(t *testing.T) {
	t.Parallel()

	sections := sectionparsing.Parse(body)
	require.Len(t, sections, 4)

	assert.Equal(t, "abstract", sections[0].SectionType)
	assert.Equal(t, "introduction", sections[1].SectionType)
	require.Len(t, sections[1].Subsections, 1)
	assert.Equal(t, "related_work", sections[1].Subsections[0].SectionType)
	assert.Equal(t, "methods", sections[2].SectionType)
	assert.Equal(t, "conclusion", sections[3].SectionType)
}

func TestParseNoHeadingsReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, sectionparsing.Parse("just plain text, no headings"))
}

func TestApplyToHeaderSetsStructureAndStatus(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	sections := sectionparsing.Parse(body)

	sectionparsing.ApplyToHeader(header, sections, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	structure := header.GetMap("paper_structure")
	require.NotNil(t, structure)

	total, ok := structure.Get("total_sections")
	require.True(t, ok)
	assert.Equal(t, 4, total)

	status := header.GetMap("processing_status")
	require.NotNil(t, status)
	assert.Equal(t, "completed", status.GetString("section_parsing"))
}

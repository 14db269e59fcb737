package aicitationsupport_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/orderedmap"
	"github.com/shuu5/obsclip/internal/stages/aicitationsupport"
)

func TestRunFlagsDanglingAndUnused(t *testing.T) {
	t.Parallel()

	citations := orderedmap.New()
	citations.Set("1", orderedmap.New())
	citations.Set("2", orderedmap.New())

	body := "Established by prior work [1,3]."

	check := aicitationsupport.Run(body, citations)

	assert.Equal(t, []int{3}, check.DanglingCitations)
	assert.Equal(t, []int{2}, check.UnusedReferences)
}

func TestRunNoIssuesWhenFullyCovered(t *testing.T) {
	t.Parallel()

	citations := orderedmap.New()
	citations.Set("1", orderedmap.New())

	check := aicitationsupport.Run("See [1] for details.", citations)

	assert.Empty(t, check.DanglingCitations)
	assert.Empty(t, check.UnusedReferences)
}

func TestApplyToHeaderWritesSectionAndStatus(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	check := aicitationsupport.Check{DanglingCitations: []int{3}}

	aicitationsupport.ApplyToHeader(header, check, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	section := header.GetMap("citation_support")
	require.NotNil(t, section)

	status := header.GetMap("processing_status")
	require.NotNil(t, status)
	assert.Equal(t, "completed", status.GetString("ai_citation_support"))
}

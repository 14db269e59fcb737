package fetch_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/citation/fetch"
	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

func TestWriteReferencesFileAndApplyCitationMetadataAgreeOnOrdinals(t *testing.T) {
	t.Parallel()

	refs := []providers.Reference{
		{Title: "Zebra Paper", Authors: "Zed, A.", Year: 2020, Journal: "J", DOI: "10.1/z"},
		{Title: "Apple Paper", Authors: "Ann, B.", Year: 2021, Journal: "J", DOI: "10.1/a"},
	}

	dir := t.TempDir()

	refsPath, orderedRefs, err := fetch.WriteReferencesFile(dir, refs)
	require.NoError(t, err)
	assert.Equal(t, "Apple Paper", orderedRefs[0].Title, "references.bib sorts Apple before Zebra")
	assert.Equal(t, "Zebra Paper", orderedRefs[1].Title)

	data, err := os.ReadFile(filepath.Join(dir, refsPath))
	require.NoError(t, err)
	content := string(data)
	assert.Less(t, indexOfUpdate(content, "Apple Paper"), indexOfUpdate(content, "Zebra Paper"))

	header := orderedmap.New()
	result := &fetch.Result{References: refs, APIUsed: "crossref", QualityScore: 1}
	fetch.ApplyCitationMetadata(header, result, orderedRefs, refsPath, time.Now())

	citations := header.GetMap("citations")
	require.NotNil(t, citations)

	first, ok := citations.Get(strconv.Itoa(1))
	require.True(t, ok)
	entry, ok := first.(*orderedmap.Map)
	require.True(t, ok)
	assert.Equal(t, "Apple Paper", entry.GetString("title"), "citation 1 must name the same reference as entry 1 in references.bib")

	second, ok := citations.Get(strconv.Itoa(2))
	require.True(t, ok)
	entry2, ok := second.(*orderedmap.Map)
	require.True(t, ok)
	assert.Equal(t, "Zebra Paper", entry2.GetString("title"))
}

func indexOfUpdate(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}

	return -1
}

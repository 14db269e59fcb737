package frontmatter_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

const sampleDoc = `---
citation_key: smith2023test
workflow_version: "3.2"
doi: 10.1038/example
processing_status:
  organize: completed
  sync: pending
---
# Introduction

Body text.
`

func TestParseThenWriteRoundTrips(t *testing.T) {
	t.Parallel()

	doc, err := frontmatter.ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "smith2023test", doc.Header.GetString("citation_key"))
	assert.Equal(t, "# Introduction\n\nBody text.\n", doc.Body)

	rendered, err := frontmatter.Render(doc)
	require.NoError(t, err)

	doc2, err := frontmatter.ParseBytes(rendered)
	require.NoError(t, err)

	assert.Equal(t, doc.Header.Keys(), doc2.Header.Keys())
	assert.Equal(t, doc.Body, doc2.Body)
}

func TestParseWritePreservesKeyOrder(t *testing.T) {
	t.Parallel()

	doc, err := frontmatter.ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"citation_key", "workflow_version", "doi", "processing_status"},
		doc.Header.Keys(),
	)
}

func TestParseMissingOpeningFenceErrors(t *testing.T) {
	t.Parallel()

	_, err := frontmatter.ParseBytes([]byte("no fence here\n"))
	require.Error(t, err)
}

func TestParseUnclosedFenceErrors(t *testing.T) {
	t.Parallel()

	_, err := frontmatter.ParseBytes([]byte("---\ncitation_key: x\n"))
	require.Error(t, err)
}

func TestWriteIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "paper.md")

	doc, err := frontmatter.ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	require.NoError(t, frontmatter.Write(path, doc))

	reread, err := frontmatter.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "smith2023test", reread.Header.GetString("citation_key"))

	entries, err := filepath.Glob(filepath.Join(dir, ".obsclip-fm-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must not survive a successful write")
}

func TestValidateStructureRequiresKeys(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	header.Set("citation_key", "smith2023test")

	err := frontmatter.ValidateStructure(header)
	require.Error(t, err)
}

func TestValidateStructurePassesOnCompleteHeader(t *testing.T) {
	t.Parallel()

	doc, err := frontmatter.ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	require.NoError(t, frontmatter.ValidateStructure(doc.Header))
}

func TestValidateStructureRejectsBadStatusValue(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	header.Set("citation_key", "x")
	header.Set("workflow_version", "3.2")

	status := orderedmap.New()
	status.Set("organize", "in_progress")
	header.Set("processing_status", status)

	require.Error(t, frontmatter.ValidateStructure(header))
}

func TestStatusOfDefaultsToPendingWhenAbsent(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	status := orderedmap.New()
	status.Set("organize", "completed")
	header.Set("processing_status", status)

	assert.Equal(t, "completed", frontmatter.StatusOf(header, "organize"))
	assert.Equal(t, "pending", frontmatter.StatusOf(header, "sync"))
}

func TestMigrateUnknownToV32AddsMissingSections(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	header.Set("citation_key", "smith2023test")

	clk := clock.Frozen{At: time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, frontmatter.Migrate(header, clk))

	assert.Equal(t, "3.2", header.GetString("workflow_version"))
	require.NotNil(t, header.GetMap("processing_status"))
	assert.Equal(t, "pending", frontmatter.StatusOf(header, "fetch"))

	history, ok := header.Get("migration_history")
	require.True(t, ok)
	records, ok := history.([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
}

func TestMigrateIsNoopWhenAlreadyCurrent(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	header.Set("workflow_version", "3.2")

	clk := clock.Frozen{At: time.Now().UTC()}
	require.NoError(t, frontmatter.Migrate(header, clk))

	_, hasHistory := header.Get("migration_history")
	assert.False(t, hasHistory)
}

func TestMigrateRejectsUnregisteredVersion(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	header.Set("workflow_version", "9.9")

	clk := clock.Frozen{At: time.Now().UTC()}
	require.Error(t, frontmatter.Migrate(header, clk))
}

func TestRepairSynthesizesMinimalHeaderWhenUnsalvageable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "smith2023test_notes.md")
	original := []byte("just some plain notes, no front-matter at all\n")

	require.NoError(t, os.WriteFile(path, original, 0o600))

	doc, backupPath, err := frontmatter.Repair(path, original, filepath.Join(dir, "backups"), clock.Real{})
	require.NoError(t, err)
	assert.Equal(t, "smith2023test", doc.Header.GetString("citation_key"))
	assert.Equal(t, original, []byte(doc.Body))
	assert.FileExists(t, backupPath)
}

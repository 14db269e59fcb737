package normalize_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/citation/normalize"
)

func TestLoadRegistryMissingFileReturnsGenericOnly(t *testing.T) {
	t.Parallel()

	reg, err := normalize.LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, reg.Parsers, "generic")
	assert.Len(t, reg.Parsers, 1)
}

func TestLoadRegistryParsesPublisherConfig(t *testing.T) {
	t.Parallel()

	const doc = `
parsers:
  elsevier:
    detection:
      doi_prefixes: ["10.1016"]
      journal_keywords: ["cell", "lancet"]
    patterns:
      - regex: '\[(\d+)\]'
        replacement: '[{number}]'
        description: bracketed numeric citation
`
	path := filepath.Join(t.TempDir(), "parsers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	reg, err := normalize.LoadRegistry(path)
	require.NoError(t, err)
	require.Contains(t, reg.Parsers, "elsevier")
	assert.Equal(t, []string{"10.1016"}, reg.Parsers["elsevier"].Detection.DOIPrefixes)
}

func TestValidateRejectsEmptyPatternList(t *testing.T) {
	t.Parallel()

	err := normalize.Validate(&normalize.ParserConfig{})
	assert.Error(t, err)
}

func TestValidateRejectsBadRegex(t *testing.T) {
	t.Parallel()

	err := normalize.Validate(&normalize.ParserConfig{
		Patterns: []normalize.PatternConfig{{Regex: "(unclosed", Replacement: "x", Description: "d"}},
	})
	assert.Error(t, err)
}

func TestRegisterAddsRuntimeParser(t *testing.T) {
	t.Parallel()

	reg := &normalize.Registry{Parsers: map[string]*normalize.ParserConfig{}}

	err := reg.Register("custom", &normalize.ParserConfig{
		Patterns: []normalize.PatternConfig{{Regex: `\[(\d+)\]`, Replacement: "[{number}]", Description: "d"}},
	})
	require.NoError(t, err)
	assert.Contains(t, reg.Parsers, "custom")
}

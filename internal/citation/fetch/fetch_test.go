package fetch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/citation/fetch"
	"github.com/shuu5/obsclip/internal/citation/providers"
)

type fakeClient struct {
	name string
	refs []providers.Reference
	err  error
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) FetchReferences(ctx context.Context, doi string) ([]providers.Reference, error) {
	return f.refs, f.err
}

func TestFetchFallsBackWhenFirstProviderBelowGate(t *testing.T) {
	t.Parallel()

	p1 := &fakeClient{name: "crossref", refs: []providers.Reference{{Title: "x"}}}
	p2 := &fakeClient{name: "semantic_scholar", refs: []providers.Reference{
		{Title: "A Sufficiently Long Title Here", Authors: "Smith, John", Year: 2020, Journal: "J", DOI: "10.1/a"},
		{Title: "Another Sufficiently Long Title", Authors: "Doe, Jane", Year: 2021, Journal: "J", DOI: "10.1/b"},
	}}

	slots := []fetch.ProviderSlot{
		{Client: p1, QualityGate: 0.80},
		{Client: p2, QualityGate: 0.70},
	}

	result, err := fetch.Fetch(context.Background(), "10.1038/test", slots, fetch.RetryPolicy{})
	require.NoError(t, err)

	assert.Equal(t, "semantic_scholar", result.APIUsed)
	assert.Len(t, result.References, 2)
	assert.GreaterOrEqual(t, result.QualityScore, 0.70)
}

func TestFetchReturnsErrorWhenAllProvidersFail(t *testing.T) {
	t.Parallel()

	p1 := &fakeClient{name: "crossref", refs: nil}
	p2 := &fakeClient{name: "semantic_scholar", refs: nil}

	slots := []fetch.ProviderSlot{
		{Client: p1, QualityGate: 0.80},
		{Client: p2, QualityGate: 0.70},
	}

	_, err := fetch.Fetch(context.Background(), "10.1038/test", slots, fetch.RetryPolicy{})
	require.Error(t, err)
}

func TestSynthesizeKeyHandlesMissingYearAndNonASCII(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "smithn.d.", fetch.SynthesizeKey("Smith, John", 0, 1))
	assert.Equal(t, "muller2020", fetch.SynthesizeKey("Müller, Hans", 2020, 1))
	assert.Equal(t, "smith2023", fetch.SynthesizeKey("John Smith", 2023, 1))
}

func TestBuildAPIStatisticsAggregatesPerProvider(t *testing.T) {
	t.Parallel()

	outcomes := []fetch.ProviderOutcome{
		{Provider: "crossref", Accepted: false, Quality: 0.1},
		{Provider: "semantic_scholar", Accepted: true, Quality: 0.85},
	}

	stats := fetch.BuildAPIStatistics(outcomes)
	require.Contains(t, stats, "crossref")
	require.Contains(t, stats, "semantic_scholar")
	assert.Equal(t, 1, stats["semantic_scholar"].Successes)
}

package fetch

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/shuu5/obsclip/internal/bibliography"
	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// ProviderStats aggregates per-provider request/success/failure/quality
// counters for the citation_metadata.api_statistics block.
type ProviderStats struct {
	Requests      int
	Successes     int
	Failures      int
	MinQuality    float64
	MaxQuality    float64
	SumQuality    float64
	QualityCount  int
}

// BuildAPIStatistics summarizes outcomes per provider.
func BuildAPIStatistics(outcomes []ProviderOutcome) map[string]*ProviderStats {
	stats := map[string]*ProviderStats{}

	for _, o := range outcomes {
		s, ok := stats[o.Provider]
		if !ok {
			s = &ProviderStats{MinQuality: 1, MaxQuality: 0}
			stats[o.Provider] = s
		}

		s.Requests++

		if o.Err != nil {
			s.Failures++

			continue
		}

		s.Successes++
		s.SumQuality += o.Quality
		s.QualityCount++

		if o.Quality < s.MinQuality {
			s.MinQuality = o.Quality
		}

		if o.Quality > s.MaxQuality {
			s.MaxQuality = o.Quality
		}
	}

	return stats
}

// WriteReferencesFile emits the accepted reference list as
// <paperDir>/references.bib and returns its basename along with refs
// reordered to match the ordinals assigned in that file, so a caller
// building front-matter citation numbers from the same slice stays in sync
// with references.bib instead of drifting to provider-return order.
func WriteReferencesFile(paperDir string, refs []providers.Reference) (string, []providers.Reference, error) {
	records := make([]bibliography.EmissionRecord, 0, len(refs))

	for _, r := range refs {
		records = append(records, bibliography.EmissionRecord{
			Title:   r.Title,
			Author:  r.Authors,
			Journal: r.Journal,
			Year:    yearString(r.Year),
			Volume:  r.Volume,
			Pages:   r.Pages,
			DOI:     r.DOI,
		})
	}

	path := filepath.Join(paperDir, "references.bib")

	keyer := func(rec bibliography.EmissionRecord, ordinal int) string {
		year, _ := strconv.Atoi(rec.Year)

		return SynthesizeKey(rec.Author, year, ordinal)
	}

	order, err := bibliography.WriteReferencesBib(path, records, keyer)
	if err != nil {
		return "", nil, err
	}

	sortedRefs := make([]providers.Reference, len(order))
	for i, idx := range order {
		sortedRefs[i] = refs[idx]
	}

	return "references.bib", sortedRefs, nil
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}

	return strconv.Itoa(y)
}

// ApplyCitationMetadata populates header.citation_metadata and
// header.citations and advances processing_status.fetch. orderedRefs must be
// result.References in the same order WriteReferencesFile assigned ordinals
// in references.bib, so citation number N here and entry N there name the
// same reference.
func ApplyCitationMetadata(header *orderedmap.Map, result *Result, orderedRefs []providers.Reference, referencesBibPath string, now time.Time) {
	meta := orderedmap.New()
	meta.Set("last_updated", now.Format(time.RFC3339Nano))
	meta.Set("fetch_completed_at", now.Format(time.RFC3339Nano))
	meta.Set("primary_api_used", result.APIUsed)
	meta.Set("total_references_found", len(result.References))
	meta.Set("quality_score", result.QualityScore)
	meta.Set("references_bib_path", referencesBibPath)
	meta.Set("api_statistics", statsToMap(BuildAPIStatistics(result.Outcomes)))

	header.Set("citation_metadata", meta)

	citations := orderedmap.New()

	for i, r := range orderedRefs {
		entry := orderedmap.New()
		entry.Set("citation_key", SynthesizeKey(r.Authors, r.Year, i+1))
		entry.Set("title", r.Title)
		entry.Set("authors", r.Authors)
		entry.Set("year", r.Year)
		entry.Set("journal", r.Journal)
		entry.Set("doi", r.DOI)

		if r.OCI != "" {
			entry.Set("oci", r.OCI)
		}

		if r.Creation != "" {
			entry.Set("creation", r.Creation)
		}

		if r.Timespan != "" {
			entry.Set("timespan", r.Timespan)
		}

		citations.Set(strconv.Itoa(i+1), entry)
	}

	header.Set("citations", citations)

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("fetch", "completed")
}

func statsToMap(stats map[string]*ProviderStats) *orderedmap.Map {
	m := orderedmap.New()

	for provider, s := range stats {
		entry := orderedmap.New()
		entry.Set("requests", s.Requests)
		entry.Set("successes", s.Successes)
		entry.Set("failures", s.Failures)

		avg := 0.0
		if s.QualityCount > 0 {
			avg = s.SumQuality / float64(s.QualityCount)
		}

		entry.Set("min_quality", s.MinQuality)
		entry.Set("max_quality", s.MaxQuality)
		entry.Set("avg_quality", avg)

		m.Set(provider, entry)
	}

	return m
}

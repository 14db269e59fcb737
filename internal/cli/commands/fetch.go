package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/appconfig"
	"github.com/shuu5/obsclip/internal/citation/fetch"
	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/doi"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/status"
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch citation references for papers whose fetch step is pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, false)
			if err != nil {
				return err
			}

			slots := providerSlots(rc.Config.CitationFetcher)
			if len(slots) == 0 {
				return fmt.Errorf("no citation_fetcher.apis are enabled")
			}

			policy := fetch.RetryPolicy{
				MaxAttempts:   rc.Config.Retry.MaxAttempts,
				Delay:         rc.Config.Retry.Delay,
				BackoffFactor: rc.Config.Retry.BackoffFactor,
			}

			mgr := status.NewManager(status.Policy{})

			paths, err := mgr.GetPapersNeeding(rc.ClippingsRoot, "fetch", nil)
			if err != nil {
				return fmt.Errorf("list papers needing fetch: %w", err)
			}

			ctx := context.Background()

			for _, path := range paths {
				if err := runFetchOne(ctx, path, slots, policy); err != nil {
					rc.Obs.Logger.Error("fetch failed", slog.String("path", path), slog.String("error", err.Error()))

					continue
				}

				rc.Obs.Logger.Info("fetch complete", slog.String("path", path))
			}

			return nil
		},
	}

	return cmd
}

func providerSlots(cfg appconfig.CitationFetcherConfig) []fetch.ProviderSlot {
	var slots []fetch.ProviderSlot

	for _, name := range []string{"crossref", "semantic_scholar", "opencitations"} {
		p, ok := cfg.APIs[name]
		if !ok || !p.Enabled {
			continue
		}

		pcfg := providers.Config{
			Name:       name,
			BaseURL:    p.BaseURL,
			APIKey:     envOrEmpty(p.APIKeyEnv),
			RatePerSec: p.RateLimit,
			Timeout:    p.Timeout,
		}

		var client providers.Client

		switch name {
		case "crossref":
			client = providers.NewCrossRef(pcfg)
		case "semantic_scholar":
			client = providers.NewSemanticScholar(pcfg)
		case "opencitations":
			client = providers.NewOpenCitations(pcfg)
		}

		slots = append(slots, fetch.ProviderSlot{Client: client, QualityGate: p.QualityThreshold})
	}

	return slots
}

func runFetchOne(ctx context.Context, path string, slots []fetch.ProviderSlot, policy fetch.RetryPolicy) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	normalizedDOI, ok := doi.Normalize(doc.Header.GetString("doi"))
	if !ok {
		return nil // pending preserved; no parseable DOI to fetch against
	}

	result, err := fetch.Fetch(ctx, normalizedDOI, slots, policy)
	if err != nil {
		return err
	}

	refsPath, orderedRefs, err := fetch.WriteReferencesFile(filepath.Dir(path), result.References)
	if err != nil {
		return err
	}

	fetch.ApplyCitationMetadata(doc.Header, result, orderedRefs, refsPath, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

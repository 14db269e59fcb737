package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/citation/normalize"
	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/status"
)

func newNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize in-text citation syntax to the bracket form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, false)
			if err != nil {
				return err
			}

			npCfg := rc.Config.CitationPatternNormalizer

			registry, err := normalize.LoadRegistry(npCfg.PatternsConfigPath)
			if err != nil {
				return fmt.Errorf("load publisher pattern registry: %w", err)
			}

			logPath := npCfg.UnknownPatternsPath
			if logPath == "" {
				logPath = "unknown_patterns.jsonl"
			}

			log := normalize.NewUnknownPatternLog(logPath)

			mgr := status.NewManager(status.Policy{})

			paths, err := mgr.GetPapersNeeding(rc.ClippingsRoot, "citation_pattern_normalizer", nil)
			if err != nil {
				return fmt.Errorf("list papers needing normalization: %w", err)
			}

			for _, path := range paths {
				if err := runNormalizeOne(path, registry, log); err != nil {
					rc.Obs.Logger.Error("normalize failed", slog.String("path", path), slog.String("error", err.Error()))

					continue
				}

				rc.Obs.Logger.Info("normalize complete", slog.String("path", path))
			}

			return nil
		},
	}

	return cmd
}

func runNormalizeOne(path string, registry *normalize.Registry, log *normalize.UnknownPatternLog) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	header := doc.Header

	result, err := normalize.Normalize(doc.Body, header, header.GetString("doi"), header.GetString("title"), header.GetString("journal"), normalize.Options{
		Registry: registry,
		Log:      log,
		Path:     path,
	})
	if err != nil {
		return err
	}

	doc.Body = result.Body

	normalize.ApplyToHeader(header, result, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/status"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate front-matter structure across the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, false)
			if err != nil {
				return err
			}

			paths, err := status.WalkPapers(rc.ClippingsRoot)
			if err != nil {
				return fmt.Errorf("walk corpus: %w", err)
			}

			invalid := 0

			for _, path := range paths {
				doc, err := frontmatter.Parse(path)
				if err != nil {
					invalid++

					rc.Obs.Logger.Error("parse failed", slog.String("path", path), slog.String("error", err.Error()))

					continue
				}

				if err := frontmatter.ValidateStructure(doc.Header); err != nil {
					invalid++

					rc.Obs.Logger.Error("validation failed", slog.String("path", path), slog.String("error", err.Error()))
				}
			}

			rc.Obs.Logger.Info("validate complete", slog.Int("checked", len(paths)), slog.Int("invalid", invalid))

			if invalid > 0 {
				return fmt.Errorf("%d of %d papers failed validation", invalid, len(paths))
			}

			return nil
		},
	}

	return cmd
}

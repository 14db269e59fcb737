package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/organize"
)

func newOrganizeCommand() *cobra.Command {
	var backupDir string

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Match staged paper files to the bibliography and move them into place",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, true)
			if err != nil {
				return err
			}

			opts := organize.Options{
				BackupDir: backupDir,
				Clock:     clock.Real{},
			}
			if !rc.Config.Organize.Organize.CreateBackup {
				opts.BackupDir = ""
			}

			report, err := organize.Run(rc.Bib, rc.ClippingsRoot, opts)
			if err != nil {
				return fmt.Errorf("organize: %w", err)
			}

			rc.Obs.Logger.Info("organize complete",
				slog.Int("organized", len(report.Organized)),
				slog.Int("missing_in_clippings", len(report.MissingInClippings)),
				slog.Int("orphaned_in_clippings", len(report.OrphanedInClippings)),
				slog.Int("no_doi", len(report.NoDOIInMarkdown)),
				slog.Int("failed", len(report.ProcessingFailed)),
			)

			for path, procErr := range report.ProcessingFailed {
				rc.Obs.Logger.Error("organize failed for file", slog.String("path", path), slog.String("error", procErr.Error()))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&backupDir, "backup-dir", "", "directory to back up collided files into before overwrite")

	return cmd
}

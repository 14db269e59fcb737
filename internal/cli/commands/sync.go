package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/sync"
)

func newSyncCommand() *cobra.Command {
	var fix bool

	var backupDir string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Check corpus/bibliography consistency, optionally auto-fixing minor issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, true)
			if err != nil {
				return err
			}

			opts := sync.Options{
				AutoFix:   fix && rc.Config.SyncChecker.AutoFixMinorIssues,
				BackupDir: backupDir,
				Clock:     clock.Real{},
			}

			report, err := sync.Run(rc.Bib, rc.ClippingsRoot, opts)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}

			issues := 0
			for _, f := range report.Files {
				issues += len(f.Issues)
			}

			rc.Obs.Logger.Info("sync complete",
				slog.Int("files_checked", len(report.Files)),
				slog.Int("issues_detected", issues),
				slog.Int("missing_in_clippings", len(report.MissingInClippings)),
				slog.Int("orphaned_in_clippings", len(report.OrphanedInClippings)),
			)

			for _, f := range report.Files {
				for _, iss := range f.Issues {
					rc.Obs.Logger.Warn("sync issue",
						slog.String("path", f.Path),
						slog.String("kind", iss.Kind),
						slog.String("severity", string(iss.Severity)),
						slog.String("detail", iss.Detail),
					)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "apply auto-fixes for minor issues")
	cmd.Flags().StringVar(&backupDir, "backup-dir", "", "directory to back up files into before an auto-fix")

	return cmd
}

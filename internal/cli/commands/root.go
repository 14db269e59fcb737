package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the obsclip command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "obsclip",
		Short: "Bibliographic enrichment pipeline for a Markdown paper corpus",
		Long: `obsclip reconciles a corpus of Markdown paper files against a BibTeX
bibliography, fetches citations from external providers, normalizes in-text
citation syntax, and calls a language model for tagging, translation, and
summarization. All state is persisted in each paper's front matter, so the
pipeline is idempotent and safe to re-run.

Commands:
  run       Drive the full pipeline over a corpus
  organize  Reconcile staged files into their canonical location
  sync      Check (and optionally fix) corpus/bibliography drift
  fetch     Fetch citations for papers missing them
  normalize Normalize in-text citation syntax
  status    Report per-paper, per-step processing status
  validate  Validate front-matter structure across the corpus`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to obsclip config file (default: ./obsclip.yaml)")
	rootCmd.PersistentFlags().String("clippings-root", ".", "root directory of the paper corpus")
	rootCmd.PersistentFlags().String("bibliography", "", "path to the master BibTeX bibliography")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newOrganizeCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

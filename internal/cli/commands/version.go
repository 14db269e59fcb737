package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "obsclip %s (commit: %s, built: %s, workflow_version: %s)\n",
				version.Version, version.Commit, version.Date, version.WorkflowVersion)

			return err
		},
	}
}

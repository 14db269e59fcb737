package commands

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/status"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report per-paper, per-step processing status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, false)
			if err != nil {
				return err
			}

			mgr := status.NewManager(status.Policy{})

			all, err := mgr.LoadAll(rc.ClippingsRoot)
			if err != nil {
				return fmt.Errorf("load statuses: %w", err)
			}

			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}

			sort.Strings(keys)

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)

			header := table.Row{"citation_key"}
			for _, step := range frontmatter.Steps {
				header = append(header, step)
			}

			tbl.AppendHeader(header)

			for _, key := range keys {
				state := all[key]

				row := table.Row{key}
				for _, step := range frontmatter.Steps {
					row = append(row, state.StatusOf(step))
				}

				tbl.AppendRow(row)
			}

			tbl.AppendFooter(table.Row{fmt.Sprintf("%d papers", len(keys))})
			tbl.Render()

			return nil
		},
	}

	return cmd
}

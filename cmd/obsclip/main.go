// Command obsclip reconciles a Markdown paper corpus against a BibTeX
// bibliography and runs the citation-fetch, normalization, and LM enrichment
// pipeline over it.
package main

import (
	"fmt"
	"os"

	"github.com/shuu5/obsclip/internal/cli/commands"
)

func main() {
	rootCmd := commands.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

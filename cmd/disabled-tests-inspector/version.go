package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarkus-qe/quarkus-utilities/internal/testcount"
	"github.com/quarkus-qe/quarkus-utilities/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		parser := "tree-sitter"
		if !testcount.Available() {
			parser = "line heuristic (built without cgo)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Test counting: %s\n", parser)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

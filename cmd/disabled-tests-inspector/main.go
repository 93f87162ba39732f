package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printSuggestedFixes(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error codes to process exit codes.
func exitCode(err error) int {
	switch inserrors.CodeOf(err) {
	case inserrors.ConfigInvalid:
		return 2
	case inserrors.SourceUnavailable:
		return 3
	case inserrors.ReportWriteFailed, inserrors.StorageFailed:
		return 4
	default:
		return 1
	}
}

func printSuggestedFixes(err error) {
	var ie *inserrors.InspectorError
	if !errors.As(err, &ie) || len(ie.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nSuggested fixes:")
	for _, fix := range ie.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(os.Stderr, "  %s\n    %s\n", fix.Description, fix.Command)
		case fix.URL != "":
			fmt.Fprintf(os.Stderr, "  %s\n    %s\n", fix.Description, fix.URL)
		default:
			fmt.Fprintf(os.Stderr, "  %s\n", fix.Description)
		}
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarkus-qe/quarkus-utilities/internal/config"
	"github.com/quarkus-qe/quarkus-utilities/internal/inspector"
	"github.com/quarkus-qe/quarkus-utilities/internal/report"
	"github.com/quarkus-qe/quarkus-utilities/internal/source"
)

var (
	scanFormat     string
	scanLite       bool
	scanNoCheck    bool
	scanCountTests bool
	scanExtended   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a local directory and print the results",
	Long: `Scan the Java test sources under a directory (default: the current one)
and print the disabled tests. Nothing is written to disk.

Examples:
  disabled-tests-inspector scan
  disabled-tests-inspector scan ../quarkus-test-suite/http --lite
  disabled-tests-inspector scan . --format yaml --no-check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "human", "Output format: human, json, yaml, toml")
	scanCmd.Flags().BoolVar(&scanLite, "lite", false, "Drop annotations that rarely need attention")
	scanCmd.Flags().BoolVar(&scanNoCheck, "no-check", false, "Do not ask issue trackers whether issues are closed")
	scanCmd.Flags().BoolVar(&scanCountTests, "count-tests", false, "Count test methods per module")
	scanCmd.Flags().BoolVar(&scanExtended, "extended", false, "Add file path and line to every record")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	e, err := loadEnv(func(cfg *config.Config) {
		cfg.Repository.Source = config.SourceDir
		cfg.Repository.LocalPath = root
		if scanLite {
			cfg.Analysis.Lite = true
		}
		if scanNoCheck {
			cfg.Tracker.CheckClosed = false
		}
		if scanCountTests {
			cfg.Analysis.CountTests = true
		}
	})
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, logger := e.cfg, e.logger
	ctx := cmd.Context()

	client := newGitHubClient(cfg, logger)
	checker, err := newChecker(cfg, client, logger)
	if err != nil {
		return err
	}
	extractor, err := newExtractor(cfg, checker, logger)
	if err != nil {
		return err
	}
	src, err := source.NewDirSource(root)
	if err != nil {
		return err
	}

	in := inspector.New(src, extractor, inspector.Options{
		Counter: newCounter(cfg),
		Logger:  logger,
	})
	result, err := in.AnalyzeBranch(ctx, localBranch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scanFormat == "human" {
		human := report.NewHuman(out)
		if err := human.RenderRecords(out, root, result.Records); err != nil {
			return err
		}
		return human.RenderStats(out, result.Modules)
	}

	data, err := report.Encode(scanFormat, report.NewBranchReport(localBranch, result.Records, scanExtended))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, string(data))
	return err
}

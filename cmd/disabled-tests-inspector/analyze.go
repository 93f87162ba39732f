package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quarkus-qe/quarkus-utilities/internal/config"
	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
	"github.com/quarkus-qe/quarkus-utilities/internal/inspector"
	"github.com/quarkus-qe/quarkus-utilities/internal/report"
)

// localBranch names the single pseudo-branch of a plain directory.
const localBranch = "local"

var (
	analyzeSource     string
	analyzeOwner      string
	analyzeRepo       string
	analyzePath       string
	analyzeBranches   []string
	analyzeFormats    []string
	analyzeOutputDir  string
	analyzeBaseName   string
	analyzeLite       bool
	analyzeGzip       bool
	analyzeUpload     bool
	analyzeNoHistory  bool
	analyzeCountTests bool
	analyzeNoCheck    bool
	analyzeExtended   bool
	analyzeHuman      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze branches and write per-branch reports",
	Long: `Analyze the configured branches of a repository and write, for every
branch, <base>-<branch>.<ext> with the disabled tests and
<base>-<branch>-stats.<ext> with annotation counts per module.

Examples:
  # Analyze quarkus-qe/quarkus-test-suite main and 3.8 through the GitHub API
  disabled-tests-inspector analyze --branch main --branch 3.8

  # Analyze a local clone, keep only annotations that matter
  disabled-tests-inspector analyze --source git --path ../quarkus-test-suite --lite

  # Write JSON and YAML, gzip them and upload to the configured bucket
  disabled-tests-inspector analyze --format json --format yaml --gzip --upload`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeSource, "source", "", "Where to read sources: github, git or dir")
	f.StringVar(&analyzeOwner, "owner", "", "Repository owner")
	f.StringVar(&analyzeRepo, "repo", "", "Repository name")
	f.StringVar(&analyzePath, "path", "", "Local clone or directory for the git and dir sources")
	f.StringArrayVarP(&analyzeBranches, "branch", "b", nil, "Branch to analyze (repeatable)")
	f.StringArrayVar(&analyzeFormats, "format", nil, "Report format: json, yaml, toml (repeatable)")
	f.StringVarP(&analyzeOutputDir, "output-dir", "o", "", "Directory for report files")
	f.StringVar(&analyzeBaseName, "base-name", "", "Report base file name (default disabled-tests.json)")
	f.BoolVar(&analyzeLite, "lite", false, "Drop annotations that rarely need attention")
	f.BoolVar(&analyzeGzip, "gzip", false, "Compress report files")
	f.BoolVar(&analyzeUpload, "upload", false, "Upload reports to the configured S3 bucket")
	f.BoolVar(&analyzeNoHistory, "no-history", false, "Do not store the run in the history database")
	f.BoolVar(&analyzeCountTests, "count-tests", false, "Count test methods per module")
	f.BoolVar(&analyzeNoCheck, "no-check", false, "Do not ask issue trackers whether issues are closed")
	f.BoolVar(&analyzeExtended, "extended", false, "Add file path and line to every record")
	f.BoolVar(&analyzeHuman, "human", false, "Also print result tables to stdout")
	rootCmd.AddCommand(analyzeCmd)
}

func applyAnalyzeFlags(cmd *cobra.Command) func(*config.Config) {
	flags := cmd.Flags()
	return func(cfg *config.Config) {
		if flags.Changed("source") {
			cfg.Repository.Source = analyzeSource
		}
		if flags.Changed("owner") {
			cfg.Repository.Owner = analyzeOwner
		}
		if flags.Changed("repo") {
			cfg.Repository.Name = analyzeRepo
		}
		if flags.Changed("path") {
			cfg.Repository.LocalPath = analyzePath
		}
		if flags.Changed("branch") {
			cfg.Repository.Branches = analyzeBranches
		}
		if flags.Changed("format") {
			cfg.Output.Formats = analyzeFormats
		}
		if flags.Changed("output-dir") {
			cfg.Output.Dir = analyzeOutputDir
		}
		if flags.Changed("base-name") {
			cfg.Output.BaseFileName = analyzeBaseName
		}
		if analyzeLite {
			cfg.Analysis.Lite = true
		}
		if analyzeGzip {
			cfg.Output.Gzip = true
		}
		if analyzeUpload {
			cfg.S3.Enabled = true
		}
		if analyzeNoHistory {
			cfg.Storage.Enabled = false
		}
		if analyzeCountTests {
			cfg.Analysis.CountTests = true
		}
		if analyzeNoCheck {
			cfg.Tracker.CheckClosed = false
		}
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(applyAnalyzeFlags(cmd))
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
	src, err := newSource(ctx, cfg, client, logger)
	if err != nil {
		return err
	}

	branches := cfg.Repository.Branches
	repository := cfg.Repository.Slug()
	if cfg.Repository.Source == config.SourceDir {
		branches = []string{localBranch}
		repository = cfg.Repository.LocalPath
	}

	in := inspector.New(src, extractor, inspector.Options{
		Parallelism: cfg.Analysis.Parallelism,
		Counter:     newCounter(cfg),
		Logger:      logger,
	})
	run, err := in.Analyze(ctx, repository, branches)
	if err != nil {
		return err
	}

	files, err := writeReports(cmd, cfg, run, logger)
	if err != nil {
		return err
	}

	if cfg.Storage.Enabled {
		if err := saveHistory(cfg, run, logger); err != nil {
			logger.Warn("Run not stored in history", "error", err)
		}
	}

	if analyzeHuman {
		out := cmd.OutOrStdout()
		human := report.NewHuman(out)
		for _, b := range run.Branches {
			if err := human.RenderRecords(out, b.Branch, b.Records); err != nil {
				return err
			}
			if err := human.RenderStats(out, b.Modules); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d disabled tests on %d branches, %d report files in %s\n",
		run.ID, run.Records(), len(run.Branches), len(files), cfg.Output.Dir)
	return nil
}

func writeReports(cmd *cobra.Command, cfg *config.Config, run *inspector.Run, logger *slog.Logger) ([]string, error) {
	sinks := []report.Sink{report.NewFileSink(cfg.Output.Dir)}
	if cfg.S3.Enabled {
		s3, err := report.NewS3Sink(report.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			UseSSL:    cfg.S3.UseSSL,
		}, run.ID)
		if err != nil {
			return nil, inserrors.New(inserrors.ReportWriteFailed, "cannot set up the S3 upload", err, nil)
		}
		sinks = append(sinks, s3)
	}

	writer, err := report.NewWriter(report.Options{
		BaseFileName: cfg.Output.BaseFileName,
		Formats:      cfg.Output.Formats,
		Gzip:         cfg.Output.Gzip,
		Extended:     analyzeExtended,
		Logger:       logger,
	}, sinks...)
	if err != nil {
		return nil, inserrors.New(inserrors.ReportWriteFailed, "cannot create report writer", err, nil)
	}

	var written []string
	for _, b := range run.Branches {
		files, err := writer.WriteBranch(cmd.Context(), b.Branch, b.Records, b.Modules)
		written = append(written, files...)
		if err != nil {
			return written, inserrors.New(inserrors.ReportWriteFailed, "cannot write reports for "+b.Branch, err, nil)
		}
	}
	return written, nil
}

func saveHistory(cfg *config.Config, run *inspector.Run, logger *slog.Logger) error {
	db, store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := store.SaveRun(historyRun(run)); err != nil {
		return inserrors.New(inserrors.StorageFailed, "cannot store run "+run.ID, err, nil)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	"github.com/quarkus-qe/quarkus-utilities/internal/config"
	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
	"github.com/quarkus-qe/quarkus-utilities/internal/github"
	"github.com/quarkus-qe/quarkus-utilities/internal/inspector"
	"github.com/quarkus-qe/quarkus-utilities/internal/issues"
	"github.com/quarkus-qe/quarkus-utilities/internal/slogutil"
	"github.com/quarkus-qe/quarkus-utilities/internal/source"
	"github.com/quarkus-qe/quarkus-utilities/internal/storage"
	"github.com/quarkus-qe/quarkus-utilities/internal/testcount"
)

// env is what every command needs: the effective config and a logger.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func (e *env) Close() {
	if e.closeLog != nil {
		_ = e.closeLog()
	}
}

// loadEnv reads the configuration, lets mutate apply command flags, and
// validates the result before building the logger.
func loadEnv(mutate func(*config.Config)) (*env, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, inserrors.New(inserrors.ConfigInvalid, "cannot load configuration", err, nil)
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, inserrors.New(inserrors.ConfigInvalid, "invalid configuration", err, nil)
	}

	level := slogutil.LevelFromVerbosity(verbosity, quiet, slogutil.LevelFromString(cfg.Logging.Level))
	logger, closeLog, err := slogutil.New(os.Stderr, slogutil.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	return &env{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

func newGitHubClient(cfg *config.Config, logger *slog.Logger) *github.Client {
	return github.NewClient(github.Options{
		APIBase: cfg.Repository.APIBase,
		Token:   cfg.Tracker.GitHubToken,
		Logger:  logger.With("component", "github"),
	})
}

// newTracker combines the configured trackers behind an LRU cache.
func newTracker(cfg *config.Config, client *github.Client) (issues.Tracker, error) {
	trackers := []issues.Tracker{issues.NewGitHubTracker(client, cfg.Tracker.GitHubHost)}
	if cfg.Tracker.JiraEnabled {
		jira, err := issues.NewJiraTracker(cfg.Tracker.JiraBase, cfg.Tracker.JiraToken, cfg.Tracker.Timeout())
		if err != nil {
			return nil, inserrors.New(inserrors.TrackerUnavailable, "cannot set up the jira tracker", err, nil)
		}
		trackers = append(trackers, jira)
	}
	cached, err := issues.NewCachedTracker(issues.NewMultiTracker(trackers...), cfg.Tracker.CacheSize)
	if err != nil {
		return nil, inserrors.New(inserrors.TrackerUnavailable, "cannot create the issue cache", err, nil)
	}
	return cached, nil
}

// newChecker returns nil when closed-issue checks are turned off.
func newChecker(cfg *config.Config, client *github.Client, logger *slog.Logger) (*issues.Checker, error) {
	if !cfg.Tracker.CheckClosed {
		return nil, nil
	}
	tracker, err := newTracker(cfg, client)
	if err != nil {
		return nil, err
	}
	return issues.NewChecker(tracker, cfg.Tracker.Timeout(), logger.With("component", "tracker")), nil
}

func newExtractor(cfg *config.Config, checker *issues.Checker, logger *slog.Logger) (*annotations.Extractor, error) {
	opts := annotations.Options{
		Lite:        cfg.Analysis.Lite,
		TrackerBase: cfg.Tracker.TicketBase,
		Logger:      logger.With("component", "extractor"),
	}
	if checker != nil {
		opts.Checker = checker
	}
	if cfg.Analysis.PolicyFile != "" {
		policy, err := annotations.LoadPolicy(cfg.Analysis.PolicyFile)
		if err != nil {
			return nil, inserrors.New(inserrors.ConfigInvalid, "cannot load lite policy "+cfg.Analysis.PolicyFile, err, nil)
		}
		opts.Policy = &policy
	}
	return annotations.NewExtractor(opts), nil
}

func newSource(ctx context.Context, cfg *config.Config, client *github.Client, logger *slog.Logger) (source.Source, error) {
	repo := cfg.Repository
	switch repo.Source {
	case config.SourceGit:
		webRepo := ""
		if repo.Owner != "" && repo.Name != "" {
			webRepo = repo.WebBase + "/" + repo.Slug()
		}
		src, err := source.NewGitSource(ctx, repo.LocalPath, source.GitOptions{
			WebRepo: webRepo,
			Logger:  logger.With("component", "git"),
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceDir:
		src, err := source.NewDirSource(repo.LocalPath)
		if err != nil {
			return nil, inserrors.New(inserrors.SourceUnavailable, "cannot read directory "+repo.LocalPath, err, nil)
		}
		return src, nil
	default:
		return source.NewGitHubSource(client, source.GitHubOptions{
			Owner:       repo.Owner,
			Repo:        repo.Name,
			WebBase:     repo.WebBase,
			Concurrency: cfg.Analysis.FetchConcurrency,
			Logger:      logger.With("component", "source"),
		}), nil
	}
}

func newCounter(cfg *config.Config) inspector.Counter {
	if !cfg.Analysis.CountTests {
		return nil
	}
	return testcount.NewCounter()
}

// openHistory opens the run history database. The caller closes the DB.
func openHistory(cfg *config.Config, logger *slog.Logger) (*storage.DB, *storage.RunStore, error) {
	db, err := storage.Open(cfg.Storage.Path, logger.With("component", "storage"))
	if err != nil {
		return nil, nil, inserrors.New(inserrors.StorageFailed, "cannot open history database "+cfg.Storage.Path, err, nil)
	}
	return db, storage.NewRunStore(db), nil
}

// historyRun converts an inspector run for storage.
func historyRun(run *inspector.Run) storage.Run {
	out := storage.Run{
		ID:         run.ID,
		Repository: run.Repository,
		Lite:       run.Lite,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Branches:   make([]storage.BranchRecords, 0, len(run.Branches)),
	}
	for _, b := range run.Branches {
		out.Branches = append(out.Branches, storage.BranchRecords{Branch: b.Branch, Records: b.Records})
	}
	return out
}

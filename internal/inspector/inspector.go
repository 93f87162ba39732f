// Package inspector runs the extractor over every test source of one or
// more branches and aggregates the results per module.
package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
	"github.com/quarkus-qe/quarkus-utilities/internal/source"
)

// Counter counts test methods in a source file.
type Counter interface {
	Count(ctx context.Context, source []byte) (int, error)
}

// Options configures an Inspector.
type Options struct {
	// Parallelism bounds how many branches are analyzed at once.
	Parallelism int
	// Counter, when set, fills per-module test totals.
	Counter Counter
	Logger  *slog.Logger
}

// Inspector analyzes branches of one repository.
type Inspector struct {
	source      source.Source
	extractor   *annotations.Extractor
	counter     Counter
	parallelism int
	logger      *slog.Logger
}

// BranchResult is the outcome for one branch.
type BranchResult struct {
	Branch string
	// Records are in file order, then line order.
	Records []annotations.Record
	Modules *modules.Table
	Files   int
}

// Run is one analysis over a set of branches.
type Run struct {
	ID         string
	Repository string
	Lite       bool
	StartedAt  time.Time
	FinishedAt time.Time
	// Branches are in the order they were requested.
	Branches []*BranchResult
}

// Records returns the number of records over all branches.
func (r *Run) Records() int {
	n := 0
	for _, b := range r.Branches {
		n += len(b.Records)
	}
	return n
}

// New creates an inspector.
func New(src source.Source, extractor *annotations.Extractor, opts Options) *Inspector {
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inspector{
		source:      src,
		extractor:   extractor,
		counter:     opts.Counter,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Analyze analyzes every branch. Any branch whose files cannot be listed
// or read fails the whole run.
func (in *Inspector) Analyze(ctx context.Context, repository string, branches []string) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		Repository: repository,
		Lite:       in.extractor.Lite(),
		StartedAt:  time.Now(),
		Branches:   make([]*BranchResult, len(branches)),
	}
	in.logger.Info(fmt.Sprintf("Starting analysis for %s on branches: %s", repository, strings.Join(branches, ", ")),
		"run", run.ID,
		"source", in.source.Describe(),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(in.parallelism)
	for i, branch := range branches {
		g.Go(func() error {
			result, err := in.AnalyzeBranch(gCtx, branch)
			if err != nil {
				return err
			}
			run.Branches[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run.FinishedAt = time.Now()
	in.logger.Info("Analysis finished",
		"run", run.ID,
		"branches", len(branches),
		"records", run.Records(),
		"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
	)
	return run, nil
}

// AnalyzeBranch lists and analyzes the test sources of one branch.
func (in *Inspector) AnalyzeBranch(ctx context.Context, branch string) (*BranchResult, error) {
	files, err := in.source.Files(ctx, branch)
	if err != nil {
		return nil, inserrors.New(inserrors.SourceUnavailable,
			fmt.Sprintf("cannot read branch %s from %s", branch, in.source.Describe()), err, nil).
			WithDetails(map[string]string{"branch": branch})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := in.AnalyzeFiles(ctx, branch, files)
	in.logger.Info("Branch analyzed",
		"branch", branch,
		"files", result.Files,
		"records", len(result.Records),
		"modules", len(result.Modules.Modules()),
	)
	return result, nil
}

// AnalyzeFiles extracts records from already loaded files.
func (in *Inspector) AnalyzeFiles(ctx context.Context, branch string, files []source.File) *BranchResult {
	result := &BranchResult{
		Branch:  branch,
		Modules: modules.NewTable(),
		Files:   len(files),
	}
	for _, f := range files {
		module := modules.ExtractModuleName(f.Path)
		records := in.extractor.Extract(ctx, f.SourceFile())
		for _, rec := range records {
			result.Modules.Increment(module, rec.AnnotationType)
		}
		result.Records = append(result.Records, records...)

		if in.counter != nil {
			n, err := in.counter.Count(ctx, []byte(f.Content))
			if err != nil {
				in.logger.Debug("Test count failed", "file", f.Path, "error", err)
				continue
			}
			result.Modules.AddTests(module, n)
		}
	}
	return result
}

package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quarkus-qe/quarkus-utilities/internal/github"
)

// DefaultFetchConcurrency bounds parallel content downloads per branch.
const DefaultFetchConcurrency = 8

// GitHubSource reads files through the GitHub REST API.
type GitHubSource struct {
	client      *github.Client
	owner       string
	repo        string
	webBase     string
	concurrency int
	logger      *slog.Logger
}

// GitHubOptions configures a GitHubSource.
type GitHubOptions struct {
	Owner string
	Repo  string
	// WebBase is the HTML host, https://github.com when empty.
	WebBase     string
	Concurrency int
	Logger      *slog.Logger
}

// NewGitHubSource creates a source for owner/repo.
func NewGitHubSource(client *github.Client, opts GitHubOptions) *GitHubSource {
	webBase := strings.TrimSuffix(opts.WebBase, "/")
	if webBase == "" {
		webBase = "https://github.com"
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GitHubSource{
		client:      client,
		owner:       opts.Owner,
		repo:        opts.Repo,
		webBase:     webBase,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Describe implements Source.
func (s *GitHubSource) Describe() string {
	return "github:" + s.owner + "/" + s.repo
}

// Files implements Source.
func (s *GitHubSource) Files(ctx context.Context, branch string) ([]File, error) {
	tree, err := s.client.Tree(ctx, s.owner, s.repo, branch)
	if err != nil {
		return nil, fmt.Errorf("list %s@%s: %w", s.Describe(), branch, err)
	}
	if tree.Truncated {
		s.logger.Warn("GitHub tree listing was truncated, some files are missing",
			"repository", s.owner+"/"+s.repo,
			"branch", branch,
		)
	}

	var paths []string
	for _, e := range tree.Blobs() {
		paths = append(paths, e.Path)
	}
	paths = FilterTestSources(paths)

	s.logger.Debug("Fetching test sources",
		"branch", branch,
		"files", len(paths),
	)

	webRepo := s.webBase + "/" + s.owner + "/" + s.repo
	files := make([]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			data, err := s.client.FileContent(gctx, s.owner, s.repo, p, branch)
			if err != nil {
				return fmt.Errorf("fetch %s@%s: %w", p, branch, err)
			}
			files[i] = File{
				Path:    p,
				URL:     BlobURL(webRepo, branch, p),
				Content: string(data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

package source

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/quarkus-qe/quarkus-utilities/internal/errors"
)

// DefaultGitTimeout bounds a single git invocation.
const DefaultGitTimeout = 30 * time.Second

// GitSource reads branches of a local clone with git ls-tree and git show,
// so branches need not be checked out.
type GitSource struct {
	repoRoot string
	webRepo  string
	timeout  time.Duration
	logger   *slog.Logger
}

// GitOptions configures a GitSource.
type GitOptions struct {
	// WebRepo is the browsable repository URL used for file links. When
	// empty it is derived from the origin remote if that points at GitHub.
	WebRepo string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewGitSource creates a source for the clone at repoRoot.
func NewGitSource(ctx context.Context, repoRoot string, opts GitOptions) (*GitSource, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultGitTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &GitSource{
		repoRoot: repoRoot,
		webRepo:  strings.TrimSuffix(opts.WebRepo, "/"),
		timeout:  timeout,
		logger:   logger,
	}

	if _, err := s.git(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, errors.New(errors.SourceUnavailable, "not a git repository: "+repoRoot, err, []errors.FixAction{
			{
				Type:        errors.RunCommand,
				Command:     "git -C " + repoRoot + " status",
				Safe:        true,
				Description: "Verify the path is a git clone",
			},
		})
	}

	if s.webRepo == "" {
		if remote, err := s.git(ctx, "remote", "get-url", "origin"); err == nil {
			s.webRepo = WebURLFromRemote(strings.TrimSpace(remote))
		}
	}

	logger.Debug("Git source initialized",
		"repoRoot", repoRoot,
		"webRepo", s.webRepo,
		"timeout", timeout.String(),
	)
	return s, nil
}

// Describe implements Source.
func (s *GitSource) Describe() string {
	return "git:" + filepath.Base(s.repoRoot)
}

// Files implements Source.
func (s *GitSource) Files(ctx context.Context, branch string) ([]File, error) {
	out, err := s.git(ctx, "ls-tree", "-r", "--name-only", branch)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", branch, err)
	}

	paths := FilterTestSources(strings.Split(strings.TrimSpace(out), "\n"))
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		content, err := s.git(ctx, "show", branch+":"+p)
		if err != nil {
			return nil, fmt.Errorf("read %s:%s: %w", branch, p, err)
		}
		files = append(files, File{
			Path:    p,
			URL:     BlobURL(s.webRepo, webBranch(branch), p),
			Content: content,
		})
	}
	return files, nil
}

// git runs a git command with timeout and returns its output.
func (s *GitSource) git(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoRoot

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, fmt.Sprintf("git %s timed out after %s", args[0], s.timeout), err, nil)
		}
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(output), nil
}

// WebURLFromRemote turns a GitHub remote (https or scp-like ssh) into its
// web URL. Other remotes yield "".
func WebURLFromRemote(remote string) string {
	r := strings.TrimSuffix(remote, ".git")
	switch {
	case strings.HasPrefix(r, "git@github.com:"):
		return "https://github.com/" + strings.TrimPrefix(r, "git@github.com:")
	case strings.HasPrefix(r, "ssh://git@github.com/"):
		return "https://github.com/" + strings.TrimPrefix(r, "ssh://git@github.com/")
	case strings.HasPrefix(r, "https://github.com/"):
		return r
	default:
		return ""
	}
}

// webBranch strips a remote prefix (origin/main -> main) for file links.
func webBranch(ref string) string {
	return strings.TrimPrefix(ref, "origin/")
}

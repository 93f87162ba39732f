package issues

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/quarkus-qe/quarkus-utilities/internal/github"
)

// DefaultGitHubHost is the web host whose issue links the GitHub tracker owns.
const DefaultGitHubHost = "github.com"

// IssueRef identifies one GitHub issue.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParseGitHubIssue splits https://<host>/<owner>/<repo>/issues/<n> into its
// parts. Query strings and fragments (e.g. #issuecomment-123) are ignored.
// Links for another host yield ErrUnsupportedLink.
func ParseGitHubIssue(link, host string) (IssueRef, error) {
	if host == "" {
		host = DefaultGitHubHost
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return IssueRef{}, fmt.Errorf("invalid issue link %q: %w", link, err)
	}
	if !strings.EqualFold(u.Host, host) {
		return IssueRef{}, ErrUnsupportedLink
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(parts)
	if n < 4 || parts[n-2] != "issues" {
		return IssueRef{}, ErrUnsupportedLink
	}
	number, err := strconv.Atoi(parts[n-1])
	if err != nil || number <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue number in %q", link)
	}
	return IssueRef{Owner: parts[n-4], Repo: parts[n-3], Number: number}, nil
}

// GitHubTracker resolves GitHub issue links through the REST API.
type GitHubTracker struct {
	client *github.Client
	host   string
}

// NewGitHubTracker creates a tracker for links on host (DefaultGitHubHost when empty).
func NewGitHubTracker(client *github.Client, host string) *GitHubTracker {
	if host == "" {
		host = DefaultGitHubHost
	}
	return &GitHubTracker{client: client, host: host}
}

// State implements Tracker.
func (t *GitHubTracker) State(ctx context.Context, link string) (State, error) {
	ref, err := ParseGitHubIssue(link, t.host)
	if err != nil {
		return StateUnknown, err
	}
	issue, err := t.client.Issue(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return StateUnknown, fmt.Errorf("fetch %s: %w", ref, err)
	}
	switch issue.State {
	case "closed":
		return StateClosed, nil
	case "open":
		return StateOpen, nil
	default:
		return StateUnknown, nil
	}
}

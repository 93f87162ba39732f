package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quarkus-qe/quarkus-utilities/internal/version"
)

// JiraTracker resolves browse-style links against a Jira REST API.
type JiraTracker struct {
	base  string
	host  string
	token string
	http  *http.Client
}

// NewJiraTracker creates a tracker for links under base,
// e.g. https://issues.redhat.com.
func NewJiraTracker(base, token string, timeout time.Duration) (*JiraTracker, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid jira base URL %q", base)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JiraTracker{
		base:  strings.TrimSuffix(u.String(), "/"),
		host:  strings.ToLower(u.Host),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}, nil
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Status struct {
			Name           string `json:"name"`
			StatusCategory struct {
				Key string `json:"key"`
			} `json:"statusCategory"`
		} `json:"status"`
	} `json:"fields"`
}

// State implements Tracker.
func (t *JiraTracker) State(ctx context.Context, link string) (State, error) {
	u, err := url.Parse(link)
	if err != nil || !strings.EqualFold(u.Host, t.host) {
		return StateUnknown, ErrUnsupportedLink
	}
	key := TicketID(link)
	if key == "" {
		return StateUnknown, ErrUnsupportedLink
	}

	endpoint := t.base + "/rest/api/2/issue/" + url.PathEscape(key) + "?fields=status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StateUnknown, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "disabled-tests-inspector/"+version.Version)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return StateUnknown, fmt.Errorf("jira request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return StateUnknown, fmt.Errorf("jira %s: unexpected status %d", key, resp.StatusCode)
	}

	var issue jiraIssue
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&issue); err != nil {
		return StateUnknown, fmt.Errorf("failed to decode jira issue %s: %w", key, err)
	}
	if issue.Fields.Status.StatusCategory.Key == "done" {
		return StateClosed, nil
	}
	return StateOpen, nil
}

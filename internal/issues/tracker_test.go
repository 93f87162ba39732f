package issues

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quarkus-qe/quarkus-utilities/internal/github"
	"github.com/quarkus-qe/quarkus-utilities/internal/slogutil"
)

type stubTracker struct {
	states map[string]State
	err    error
	calls  atomic.Int32
}

func (s *stubTracker) State(_ context.Context, link string) (State, error) {
	s.calls.Add(1)
	if s.err != nil {
		return StateUnknown, s.err
	}
	state, ok := s.states[link]
	if !ok {
		return StateUnknown, ErrUnsupportedLink
	}
	return state, nil
}

func TestParseGitHubIssue(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    IssueRef
		wantErr error
	}{
		{
			name: "plain",
			link: "https://github.com/quarkusio/quarkus/issues/39230",
			want: IssueRef{Owner: "quarkusio", Repo: "quarkus", Number: 39230},
		},
		{
			name: "comment fragment",
			link: "https://github.com/quarkus-qe/quarkus-test-suite/issues/12#issuecomment-998877",
			want: IssueRef{Owner: "quarkus-qe", Repo: "quarkus-test-suite", Number: 12},
		},
		{
			name:    "other host",
			link:    "https://issues.redhat.com/browse/QUARKUS-1",
			wantErr: ErrUnsupportedLink,
		},
		{
			name:    "pull request",
			link:    "https://github.com/org/repo/pull/3",
			wantErr: ErrUnsupportedLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGitHubIssue(tt.link, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseGitHubIssue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGitHubIssue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseGitHubIssue() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGitHubTrackerState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/org/repo/issues/1":
			_, _ = w.Write([]byte(`{"number":1,"state":"closed"}`))
		case "/repos/org/repo/issues/2":
			_, _ = w.Write([]byte(`{"number":2,"state":"open"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		}
	}))
	defer srv.Close()

	client := github.NewClient(github.Options{APIBase: srv.URL, MaxRetries: 0})
	tracker := NewGitHubTracker(client, "")
	ctx := context.Background()

	state, err := tracker.State(ctx, "https://github.com/org/repo/issues/1")
	if err != nil || state != StateClosed {
		t.Errorf("State(#1) = %v, %v; want closed, nil", state, err)
	}
	state, err = tracker.State(ctx, "https://github.com/org/repo/issues/2#issuecomment-5")
	if err != nil || state != StateOpen {
		t.Errorf("State(#2) = %v, %v; want open, nil", state, err)
	}
	if _, err := tracker.State(ctx, "https://github.com/org/repo/issues/404"); err == nil {
		t.Error("State(#404) expected error")
	}
	if _, err := tracker.State(ctx, "https://issues.redhat.com/browse/X-1"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("State(jira link) error = %v, want ErrUnsupportedLink", err)
	}
}

func TestJiraTrackerState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != "status" {
			t.Errorf("fields query = %q, want status", r.URL.Query().Get("fields"))
		}
		switch r.URL.Path {
		case "/rest/api/2/issue/QUARKUS-1":
			_, _ = w.Write([]byte(`{"key":"QUARKUS-1","fields":{"status":{"name":"Closed","statusCategory":{"key":"done"}}}}`))
		case "/rest/api/2/issue/QUARKUS-2":
			_, _ = w.Write([]byte(`{"key":"QUARKUS-2","fields":{"status":{"name":"New","statusCategory":{"key":"new"}}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tracker, err := NewJiraTracker(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewJiraTracker() error = %v", err)
	}
	ctx := context.Background()

	if state, err := tracker.State(ctx, srv.URL+"/browse/QUARKUS-1"); err != nil || state != StateClosed {
		t.Errorf("State(QUARKUS-1) = %v, %v; want closed", state, err)
	}
	if state, err := tracker.State(ctx, srv.URL+"/browse/QUARKUS-2"); err != nil || state != StateOpen {
		t.Errorf("State(QUARKUS-2) = %v, %v; want open", state, err)
	}
	if _, err := tracker.State(ctx, "https://github.com/org/repo/issues/1"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("State(github link) error = %v, want ErrUnsupportedLink", err)
	}
}

func TestMultiTrackerRoutes(t *testing.T) {
	gh := &stubTracker{states: map[string]State{"https://github.com/a/b/issues/1": StateClosed}}
	jira := &stubTracker{states: map[string]State{"https://issues.redhat.com/browse/A-1": StateOpen}}
	m := NewMultiTracker(gh, nil, jira)
	ctx := context.Background()

	if s, err := m.State(ctx, "https://github.com/a/b/issues/1"); err != nil || s != StateClosed {
		t.Errorf("github route = %v, %v", s, err)
	}
	if s, err := m.State(ctx, "https://issues.redhat.com/browse/A-1"); err != nil || s != StateOpen {
		t.Errorf("jira route = %v, %v", s, err)
	}
	if _, err := m.State(ctx, "https://example.com/x"); !errors.Is(err, ErrUnsupportedLink) {
		t.Errorf("unknown route error = %v, want ErrUnsupportedLink", err)
	}
}

func TestIsClosedDegradesToFalse(t *testing.T) {
	ctx := context.Background()
	logger := slogutil.NewDiscardLogger()
	failing := &stubTracker{err: errors.New("connection refused")}

	tests := []struct {
		name    string
		tracker Tracker
		link    string
		want    bool
	}{
		{name: "nil tracker", tracker: nil, link: "https://github.com/a/b/issues/1", want: false},
		{name: "empty link", tracker: failing, link: "", want: false},
		{name: "lookup error", tracker: failing, link: "https://github.com/a/b/issues/1", want: false},
		{
			name:    "closed",
			tracker: &stubTracker{states: map[string]State{"https://github.com/a/b/issues/1": StateClosed}},
			link:    "https://github.com/a/b/issues/1",
			want:    true,
		},
		{
			name:    "open",
			tracker: &stubTracker{states: map[string]State{"https://github.com/a/b/issues/1": StateOpen}},
			link:    "https://github.com/a/b/issues/1",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(ctx, tt.tracker, tt.link, time.Second, logger); got != tt.want {
				t.Errorf("IsClosed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerLogsFailures(t *testing.T) {
	var buf strings.Builder
	logger := slogutil.NewLogger(&buf, slogutil.LevelFromString("debug"))
	checker := NewChecker(&stubTracker{err: errors.New("boom")}, 0, logger)

	if checker.IsClosed(context.Background(), "https://github.com/a/b/issues/9") {
		t.Fatal("IsClosed() = true on error")
	}
	if !strings.Contains(buf.String(), "Issue state lookup failed") {
		t.Errorf("expected warning in log, got %q", buf.String())
	}

	var nilChecker *Checker
	if nilChecker.IsClosed(context.Background(), "https://github.com/a/b/issues/9") {
		t.Error("nil Checker reported closed")
	}
}

func TestCachedTracker(t *testing.T) {
	next := &stubTracker{states: map[string]State{
		"https://github.com/a/b/issues/1": StateClosed,
	}}
	cached, err := NewCachedTracker(next, 8)
	if err != nil {
		t.Fatalf("NewCachedTracker() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		state, err := cached.State(ctx, "https://github.com/a/b/issues/1")
		if err != nil || state != StateClosed {
			t.Fatalf("State() = %v, %v", state, err)
		}
	}
	// Fragment variants share the cache entry.
	if _, err := cached.State(ctx, "https://github.com/a/b/issues/1#issuecomment-1"); err != nil {
		t.Fatalf("State(fragment) error = %v", err)
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("underlying calls = %d, want 1", got)
	}

	// Errors are not cached.
	_, _ = cached.State(ctx, "https://github.com/a/b/issues/2")
	_, _ = cached.State(ctx, "https://github.com/a/b/issues/2")
	if got := next.calls.Load(); got != 3 {
		t.Errorf("underlying calls after errors = %d, want 3", got)
	}
	if cached.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cached.Len())
	}
}

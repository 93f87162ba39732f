package issues

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// State is the lifecycle state of a tracked issue.
type State int

const (
	StateUnknown State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrUnsupportedLink is returned by a Tracker for links it does not own.
var ErrUnsupportedLink = errors.New("issue link not supported by tracker")

// Tracker looks up the state of the issue behind a link.
type Tracker interface {
	State(ctx context.Context, link string) (State, error)
}

// MultiTracker asks each tracker in turn until one accepts the link.
type MultiTracker struct {
	trackers []Tracker
}

// NewMultiTracker routes links across the given trackers. Nil entries are skipped.
func NewMultiTracker(trackers ...Tracker) *MultiTracker {
	m := &MultiTracker{}
	for _, t := range trackers {
		if t != nil {
			m.trackers = append(m.trackers, t)
		}
	}
	return m
}

// State implements Tracker.
func (m *MultiTracker) State(ctx context.Context, link string) (State, error) {
	for _, t := range m.trackers {
		state, err := t.State(ctx, link)
		if errors.Is(err, ErrUnsupportedLink) {
			continue
		}
		return state, err
	}
	return StateUnknown, ErrUnsupportedLink
}

// Checker answers the yes/no question asked for every extracted record:
// is the linked issue closed? Failures never propagate; they are logged
// and reported as "not closed".
type Checker struct {
	tracker Tracker
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker wraps tracker. A zero timeout disables the per-call deadline.
func NewChecker(tracker Tracker, timeout time.Duration, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{tracker: tracker, timeout: timeout, logger: logger}
}

// IsClosed reports whether link points at a closed issue.
func (c *Checker) IsClosed(ctx context.Context, link string) bool {
	if c == nil {
		return false
	}
	return IsClosed(ctx, c.tracker, link, c.timeout, c.logger)
}

// IsClosed resolves link through t and degrades to false on a nil tracker,
// an empty link, or any lookup error.
func IsClosed(ctx context.Context, t Tracker, link string, timeout time.Duration, logger *slog.Logger) bool {
	if t == nil || link == "" {
		return false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	state, err := t.State(ctx, link)
	if err != nil {
		if logger != nil && !errors.Is(err, ErrUnsupportedLink) {
			logger.Warn("Issue state lookup failed",
				"link", link,
				"error", err.Error(),
			)
		}
		return false
	}
	return state == StateClosed
}

// canonicalLink normalizes a link for use as a cache key: fragment and
// query dropped, host lowercased, trailing slash removed.
func canonicalLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return link
	}
	u.Fragment = ""
	u.RawQuery = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

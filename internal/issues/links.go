// Package issues resolves tracking-issue links found next to disabled tests
// and reports whether the referenced issue is still open.
package issues

import (
	"regexp"
	"strings"
)

// DefaultTrackerBase is prepended to bare ticket IDs such as QUARKUS-1234.
const DefaultTrackerBase = "https://issues.redhat.com/browse/"

var (
	// issueURLPattern matches the canonical tracker URL shapes:
	//
	//	https://<host>/<owner>/<repo>/issues/<digits>
	//	https://issues.<domain>/browse/<KEY>-<digits>
	issueURLPattern = regexp.MustCompile(
		`https://(?:[\w.-]+/[\w.-]+/[\w.-]+/issues/\d+|issues\.[\w.-]+/browse/\w+-\d+)`,
	)

	// ticketIDPattern matches a bare ticket ID: uppercase letters, a hyphen, digits.
	ticketIDPattern = regexp.MustCompile(`\b[A-Z]+-\d+\b`)
)

// ExtractIssueLink returns the first canonical tracker URL found in text,
// or "" when there is none.
func ExtractIssueLink(text string) string {
	if text == "" {
		return ""
	}
	return issueURLPattern.FindString(text)
}

// TryBuildIssueLink looks for a bare ticket ID in text and turns it into a
// tracker URL under DefaultTrackerBase.
func TryBuildIssueLink(text string) string {
	return BuildIssueLink(DefaultTrackerBase, text)
}

// BuildIssueLink is TryBuildIssueLink with an explicit tracker base URL.
func BuildIssueLink(base, text string) string {
	if text == "" {
		return ""
	}
	id := ticketIDPattern.FindString(text)
	if id == "" {
		return ""
	}
	if base == "" {
		base = DefaultTrackerBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + id
}

// TicketID returns the ticket key of a browse-style link
// (https://issues.example.com/browse/KEY-1 -> KEY-1), or "".
func TicketID(link string) string {
	idx := strings.LastIndex(link, "/browse/")
	if idx < 0 {
		return ""
	}
	id := link[idx+len("/browse/"):]
	if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
		id = id[:cut]
	}
	return id
}

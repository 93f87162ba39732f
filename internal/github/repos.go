package github

import (
	"context"
	"fmt"
	"net/url"
)

// TreeEntry is one node of a git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

// Tree is the recursive listing of a ref.
type Tree struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}

// Blobs returns only file entries.
func (t *Tree) Blobs() []TreeEntry {
	out := make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.Type == "blob" {
			out = append(out, e)
		}
	}
	return out
}

// Tree lists every path reachable from ref.
func (c *Client) Tree(ctx context.Context, owner, repo, ref string) (*Tree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(ref))
	var tree Tree
	if err := c.getJSON(ctx, path, url.Values{"recursive": {"1"}}, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// FileContent returns the raw bytes of path at ref.
func (c *Client) FileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	p := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(path))
	var query url.Values
	if ref != "" {
		query = url.Values{"ref": {ref}}
	}
	return c.do(ctx, p, query, mediaTypeRaw)
}

// Issue is the subset of the issue payload the inspector reads.
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
}

// Closed reports whether the issue state is "closed".
func (i *Issue) Closed() bool {
	return i.State == "closed"
}

// Issue fetches a single issue.
func (c *Client) Issue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	var issue Issue
	if err := c.getJSON(ctx, path, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Package source lists and reads the test sources of a repository branch,
// from GitHub, a local git clone or a plain directory.
package source

import (
	"context"
	"strings"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
)

// File is one test source of a branch.
type File struct {
	Path    string
	URL     string
	Content string
}

// SourceFile converts f for the extractor.
func (f File) SourceFile() annotations.SourceFile {
	return annotations.SourceFile{Path: f.Path, URL: f.URL, Content: f.Content}
}

// Source yields the test sources of a branch. Implementations return files
// in a stable order.
type Source interface {
	Files(ctx context.Context, branch string) ([]File, error)
	// Describe names the source for log lines, e.g. github:owner/repo.
	Describe() string
}

// IsTestSource reports whether path is a Java test source:
// under a test directory or a testsuite tree, with a .java suffix.
func IsTestSource(path string) bool {
	if !strings.HasSuffix(path, ".java") {
		return false
	}
	return strings.Contains(path, "/test/") ||
		strings.HasPrefix(path, "test/") ||
		strings.Contains(path, "testsuite/")
}

// FilterTestSources keeps the paths accepted by IsTestSource, preserving order.
func FilterTestSources(paths []string) []string {
	out := make([]string, 0, len(paths)/4)
	for _, p := range paths {
		if IsTestSource(p) {
			out = append(out, p)
		}
	}
	return out
}

// BlobURL builds a browsable URL for path on branch under a web repository
// URL such as https://github.com/owner/repo.
func BlobURL(webRepo, branch, path string) string {
	if webRepo == "" {
		return path
	}
	return strings.TrimSuffix(webRepo, "/") + "/blob/" + branch + "/" + strings.TrimPrefix(path, "/")
}

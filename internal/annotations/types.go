// Package annotations extracts disabled-test annotations from Java sources.
//
// Extraction is a single forward pass over the lines of a file. It keeps a
// small amount of state (the enclosing class, annotations waiting for their
// declaration, the last comment seen) and never parses the language, so it
// copes with code that does not compile.
package annotations

import "context"

// SourceFile is one file handed to the extractor.
type SourceFile struct {
	// Path is the repository-relative path, e.g. http/rest/src/test/java/FooIT.java.
	Path string
	// URL is a browsable link to the file.
	URL     string
	Content string
}

// Record is one disabled (or conditionally enabled) test.
type Record struct {
	TestName       string
	ClassName      string
	AnnotationType string
	// Reason and IssueLink are empty when absent.
	Reason      string
	IssueLink   string
	FileURL     string
	IssueClosed bool

	FilePath string
	// Line is the 1-based line of the annotation.
	Line int
}

// HasIssue reports whether a tracker link was found.
func (r Record) HasIssue() bool {
	return r.IssueLink != ""
}

// ClassLevel reports whether the annotation disables a whole class.
func (r Record) ClassLevel() bool {
	return r.TestName == AllTestsInClass
}

// IssueChecker answers whether the issue behind a link is closed.
// Implementations must not fail; unknown means false.
type IssueChecker interface {
	IsClosed(ctx context.Context, link string) bool
}

// pending is an annotation waiting for the declaration it applies to.
type pending struct {
	annotationType string
	reason         string
	issueLink      string
	line           int
}

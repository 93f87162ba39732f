// Package report serializes branch results into report files.
package report

import (
	"regexp"
	"strings"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
)

// Formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// DisabledTest is the serialized form of a record. Reason and IssueLink
// are null when absent.
type DisabledTest struct {
	TestName       string  `json:"test_name" yaml:"test_name" toml:"test_name"`
	ClassName      string  `json:"class_name" yaml:"class_name" toml:"class_name"`
	AnnotationType string  `json:"annotation_type" yaml:"annotation_type" toml:"annotation_type"`
	Reason         *string `json:"reason" yaml:"reason" toml:"reason,omitempty"`
	IssueLink      *string `json:"issue_link" yaml:"issue_link" toml:"issue_link,omitempty"`
	FileURL        string  `json:"file_url" yaml:"file_url" toml:"file_url"`
	IssueClosed    bool    `json:"issue_closed" yaml:"issue_closed" toml:"issue_closed"`

	// Extended fields.
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty" toml:"file_path,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
}

// BranchReport is the content of <base>-<branch>.<ext>.
type BranchReport struct {
	BranchName    string         `json:"branch_name" yaml:"branch_name" toml:"branch_name"`
	DisabledTests []DisabledTest `json:"disabled_tests" yaml:"disabled_tests" toml:"disabled_tests"`
}

// StatsReport is the content of <base>-<branch>-stats.<ext>:
// module -> annotation type -> count.
type StatsReport map[string]map[string]int

// NewBranchReport converts records. extended adds file path and line.
func NewBranchReport(branch string, records []annotations.Record, extended bool) BranchReport {
	br := BranchReport{
		BranchName:    branch,
		DisabledTests: make([]DisabledTest, 0, len(records)),
	}
	for _, rec := range records {
		dt := DisabledTest{
			TestName:       rec.TestName,
			ClassName:      rec.ClassName,
			AnnotationType: rec.AnnotationType,
			Reason:         optional(rec.Reason),
			IssueLink:      optional(rec.IssueLink),
			FileURL:        rec.FileURL,
			IssueClosed:    rec.IssueClosed,
		}
		if extended {
			dt.FilePath = rec.FilePath
			dt.Line = rec.Line
		}
		br.DisabledTests = append(br.DisabledTests, dt)
	}
	return br
}

// NewStatsReport converts a module table.
func NewStatsReport(table *modules.Table) StatsReport {
	out := make(StatsReport)
	for module, stats := range table.Snapshot() {
		out[module] = map[string]int(stats)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var (
	knownExtension = regexp.MustCompile(`(?i)\.(json|ya?ml|toml)$`)
	unsafeBranch   = regexp.MustCompile(`[^\w.-]+`)
)

// FileName builds the report file name for a branch:
// base "disabled-tests.json", branch "main" -> "disabled-tests-main.json",
// with stats -> "disabled-tests-main-stats.json". A known extension on
// base is replaced by the format's. Slashes in branch names become dashes.
func FileName(base, branch, format string, stats bool) string {
	name := knownExtension.ReplaceAllString(base, "")
	name += "-" + SanitizeBranch(branch)
	if stats {
		name += "-stats"
	}
	return name + "." + Extension(format)
}

// SanitizeBranch makes a branch name safe for file names.
func SanitizeBranch(branch string) string {
	s := unsafeBranch.ReplaceAllString(branch, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "branch"
	}
	return s
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "json"
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	default:
		return "application/json"
	}
}

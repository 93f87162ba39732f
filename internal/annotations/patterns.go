package annotations

import "regexp"

// PatternSetVersion is bumped whenever a recognizer below changes, so stored
// runs can be compared only against runs produced by the same rules.
const PatternSetVersion = 3

const (
	// AllTestsInClass is the test name of records flushed at a class declaration.
	AllTestsInClass = "All tests in class"

	// UnknownClass names the class of records found before any class declaration.
	UnknownClass = "UnknownClass"
)

var (
	classPattern = regexp.MustCompile(
		`^(?:(?:public|protected|private|abstract|static|final|sealed|non-sealed|strictfp)\s+)*(?:class|interface|enum|record)\s+(\w+)`,
	)

	methodPattern = regexp.MustCompile(
		`^(?:(?:public|protected|private|static|final|synchronized|abstract|default)\s+)*(?:<[^>]*>\s*)?void\s+(\w+)\s*\(`,
	)

	annotationPattern = regexp.MustCompile(`@((?:Disabled|Enabled)\w*)`)

	// leadingAnnotationPattern is any annotation name at the start of code.
	leadingAnnotationPattern = regexp.MustCompile(`^@[\w.]+`)

	// namedReasonPattern finds reason = "...", disabledReason = "..." and friends.
	namedReasonPattern = regexp.MustCompile(`(?i)reason\s*=\s*"`)

	valuePrefixPattern = regexp.MustCompile(`^value\s*=\s*`)
)

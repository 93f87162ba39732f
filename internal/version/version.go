// Package version holds build-time version information for the inspector.
package version

// Overridable at build time:
// go build -ldflags "-X github.com/quarkus-qe/quarkus-utilities/internal/version.Version=1.2.0"
var (
	// Version is the semantic version of the inspector
	Version = "1.0.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a short version string.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information.
func Full() string {
	return "disabled-tests-inspector version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

package annotations

import "slices"

// Policy decides which annotations lite mode leaves out of the report.
type Policy struct {
	// AlwaysSkip lists annotation types that are dropped unconditionally.
	AlwaysSkip []string `toml:"always_skip"`
	// SkipWithoutIssue lists annotation types dropped unless an issue link was found.
	SkipWithoutIssue []string `toml:"skip_without_issue"`
}

// DefaultPolicy skips environment conditions (OS, JRE, system properties)
// and keeps native/FIPS style exclusions only when they point at an issue.
// Plain @Disabled is always reported.
func DefaultPolicy() Policy {
	return Policy{
		AlwaysSkip: []string{
			"EnabledOnOs",
			"DisabledOnOs",
			"EnabledOnJre",
			"DisabledOnJre",
			"EnabledForJreRange",
			"DisabledForJreRange",
			"EnabledIfSystemProperty",
			"EnabledIfEnvironmentVariable",
			"EnabledOnNative",
			"EnabledWhenLinuxContainersAvailable",
		},
		SkipWithoutIssue: []string{
			"DisabledOnNative",
			"DisabledIfSystemProperty",
			"DisabledIfEnvironmentVariable",
			"DisabledOnFipsAndJava17",
			"DisabledOnQuarkusVersion",
			"DisabledOnQuarkusSnapshot",
			"DisabledOnAarch64Native",
			"DisabledOnSemeruJdk",
		},
	}
}

// Skip reports whether lite mode drops an annotation of the given type.
func (p Policy) Skip(annotationType, issueLink string) bool {
	if slices.Contains(p.AlwaysSkip, annotationType) {
		return true
	}
	return issueLink == "" && slices.Contains(p.SkipWithoutIssue, annotationType)
}

package annotations

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadPolicy reads a lite-mode policy from a TOML file:
//
//	always_skip = ["DisabledOnOs"]
//	skip_without_issue = ["DisabledOnNative"]
//
// Keys missing from the file keep their DefaultPolicy value.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a TOML policy document over DefaultPolicy.
func ParsePolicy(data []byte) (Policy, error) {
	var doc struct {
		AlwaysSkip       *[]string `toml:"always_skip"`
		SkipWithoutIssue *[]string `toml:"skip_without_issue"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy: %w", err)
	}

	policy := DefaultPolicy()
	if doc.AlwaysSkip != nil {
		policy.AlwaysSkip = *doc.AlwaysSkip
	}
	if doc.SkipWithoutIssue != nil {
		policy.SkipWithoutIssue = *doc.SkipWithoutIssue
	}
	return policy, nil
}

// MarshalPolicy renders a policy as TOML, e.g. to seed a policy file.
func MarshalPolicy(p Policy) ([]byte, error) {
	return toml.Marshal(p)
}

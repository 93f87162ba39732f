package testutil

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// updateGolden rewrites golden files instead of comparing.
// Use: go test ./internal/report -run Golden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// GoldenPath returns testdata/golden/<name>.json.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name+".json")
}

// CompareGolden normalizes got (JSON) and compares it with the golden
// file, failing with a line diff on mismatch. With -update the golden file
// is rewritten instead.
func CompareGolden(t *testing.T, name string, got []byte, n Normalizer) {
	t.Helper()

	normalized, err := n.Normalize(got)
	if err != nil {
		t.Fatalf("Failed to normalize %s: %v", name, err)
	}
	goldenPath := GoldenPath(name)

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test -run %s -update",
				goldenPath, normalized, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}
	expected = bytes.ReplaceAll(expected, []byte("\r\n"), []byte("\n"))

	if !bytes.Equal(normalized, expected) {
		diff := cmp.Diff(strings.Split(string(expected), "\n"), strings.Split(string(normalized), "\n"))
		t.Fatalf("Golden mismatch for %s (-want +got):\n%s\n\nRun with -update to refresh:\n  go test -run %s -update",
			name, diff, t.Name())
	}
}

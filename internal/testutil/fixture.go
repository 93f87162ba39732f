// Package testutil provides fixture and golden-file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ReadFixture reads a file under the calling package's testdata directory.
func ReadFixture(t *testing.T, elem ...string) []byte {
	t.Helper()

	path := filepath.Join(append([]string{"testdata"}, elem...)...)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", path, err)
	}
	return data
}

// WriteFile writes content to root/rel, creating parent directories.
// rel uses forward slashes.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", p, err)
	}
}

// WriteTree creates a temporary source tree from rel path -> content and
// returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
	return root
}

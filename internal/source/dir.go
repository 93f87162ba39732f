package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"target":       true,
	"build":        true,
	"node_modules": true,
	".idea":        true,
}

// DirSource walks a plain directory. The branch argument is ignored.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at root.
func NewDirSource(root string) (*DirSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &DirSource{root: abs}, nil
}

// Describe implements Source.
func (s *DirSource) Describe() string {
	return "dir:" + s.root
}

// Files implements Source.
func (s *DirSource) Files(ctx context.Context, _ string) ([]File, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != s.root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if IsTestSource(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	for _, rel := range paths {
		abs := filepath.Join(s.root, filepath.FromSlash(rel))
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		files = append(files, File{
			Path:    rel,
			URL:     "file://" + filepath.ToSlash(abs),
			Content: string(data),
		})
	}
	return files, nil
}

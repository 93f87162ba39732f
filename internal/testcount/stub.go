//go:build !cgo

package testcount

import (
	"bufio"
	"bytes"
	"context"
	"regexp"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
)

var annotationPattern = regexp.MustCompile(`@([\w.]+)`)

// Counter counts test annotations line by line when tree-sitter is not
// available. Annotations in comments and string literals are ignored.
type Counter struct{}

// NewCounter creates a line-based counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Available returns false: counting is a heuristic without CGO.
func Available() bool {
	return false
}

// Count returns the number of test annotations in source.
func (c *Counter) Count(ctx context.Context, source []byte) (int, error) {
	count := 0
	inBlock := false
	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		var line annotations.Line
		line, inBlock = annotations.Classify(sc.Text(), inBlock)
		if line.Code == "" {
			continue
		}
		for _, m := range annotationPattern.FindAllStringSubmatch(annotations.StripLiterals(line.Code), -1) {
			if isTestAnnotation(m[1]) {
				count++
			}
		}
	}
	return count, sc.Err()
}

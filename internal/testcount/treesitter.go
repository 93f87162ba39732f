//go:build cgo

package testcount

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Counter counts test methods using the tree-sitter Java grammar.
// It is safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewCounter creates a tree-sitter backed counter.
func NewCounter() *Counter {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return &Counter{parser: parser}
}

// Available reports whether counting uses a real parser.
func Available() bool {
	return true
}

// Count returns the number of test methods declared in source.
func (c *Counter) Count(ctx context.Context, source []byte) (int, error) {
	c.mu.Lock()
	tree, err := c.parser.ParseCtx(ctx, nil, source)
	c.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	count := 0
	walk(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() == "method_declaration" && hasTestAnnotation(n, source) {
			count++
		}
	})
	return count, nil
}

func hasTestAnnotation(method *sitter.Node, source []byte) bool {
	for i := 0; i < int(method.NamedChildCount()); i++ {
		mods := method.NamedChild(i)
		if mods.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(mods.NamedChildCount()); j++ {
			ann := mods.NamedChild(j)
			if ann.Type() != "marker_annotation" && ann.Type() != "annotation" {
				continue
			}
			if name := ann.ChildByFieldName("name"); name != nil && isTestAnnotation(name.Content(source)) {
				return true
			}
		}
	}
	return false
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// Package modules groups disabled-test counts by the module a file lives in.
package modules

import (
	"path"
	"sort"
	"strings"
	"sync"
)

// SourceRootMarker separates a module directory from its sources.
const SourceRootMarker = "/src"

// RootModule names files that sit under a top-level src directory.
const RootModule = "."

// TotalTestsKey is the stats key carrying a module's total test count when
// test counting is enabled.
const TotalTestsKey = "total_tests"

// ExtractModuleName returns the path prefix before the first /src segment:
//
//	http/http-advanced/src/test/java/FooIT.java -> http/http-advanced
//
// Paths without a src segment map to their directory.
func ExtractModuleName(filePath string) string {
	p := strings.TrimPrefix(filePath, "./")
	if strings.HasPrefix(p, "src/") {
		return RootModule
	}
	for from := 0; ; {
		idx := strings.Index(p[from:], SourceRootMarker)
		if idx < 0 {
			break
		}
		end := from + idx + len(SourceRootMarker)
		if end == len(p) || p[end] == '/' {
			return p[:from+idx]
		}
		from = end
	}
	dir := path.Dir(p)
	if dir == "" {
		return RootModule
	}
	return dir
}

// Stats counts annotations per annotation type.
type Stats map[string]int

// Increment adds one occurrence of annotationType.
func (s Stats) Increment(annotationType string) {
	s[annotationType]++
}

// Total sums all counts.
func (s Stats) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Table holds Stats for every module of one branch. It is safe for
// concurrent use.
type Table struct {
	mu      sync.Mutex
	modules map[string]Stats
	tests   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		modules: make(map[string]Stats),
		tests:   make(map[string]int),
	}
}

// Increment records one annotation for a module.
func (t *Table) Increment(module, annotationType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, ok := t.modules[module]
	if !ok {
		stats = make(Stats)
		t.modules[module] = stats
	}
	stats.Increment(annotationType)
}

// AddTests records test methods found in a module.
func (t *Table) AddTests(module string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tests[module] += n
}

// Stats returns a copy of the counts for one module.
func (t *Table) Stats(module string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(Stats, len(t.modules[module]))
	for k, v := range t.modules[module] {
		out[k] = v
	}
	return out
}

// TotalTests returns the number of test methods counted for module.
func (t *Table) TotalTests(module string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests[module]
}

// Modules returns the names of modules with at least one annotation, sorted.
func (t *Table) Modules() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.modules))
	for name := range t.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total returns the number of annotations across all modules.
func (t *Table) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.modules {
		n += s.Total()
	}
	return n
}

// Snapshot returns a deep copy keyed by module. Test totals are included
// under TotalTestsKey for modules that have annotations and counted tests.
func (t *Table) Snapshot() map[string]Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Stats, len(t.modules))
	for name, s := range t.modules {
		c := make(Stats, len(s)+1)
		for k, v := range s {
			c[k] = v
		}
		if n, ok := t.tests[name]; ok && n > 0 {
			c[TotalTestsKey] = n
		}
		out[name] = c
	}
	return out
}

package modules

import (
	"sync"
	"testing"
)

func TestExtractModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"example/src/test/TestClass.java", "example"},
		{"http/http-advanced/src/test/java/io/quarkus/FooIT.java", "http/http-advanced"},
		{"./sql-db/reactive/src/test/java/BarIT.java", "sql-db/reactive"},
		{"codegen/srcgen/src/test/java/X.java", "codegen/srcgen"},
		{"src/test/java/RootIT.java", RootModule},
		{"testsuite/java/NoSrcIT.java", "testsuite/java"},
		{"Lonely.java", RootModule},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ExtractModuleName(tt.path); got != tt.want {
				t.Errorf("ExtractModuleName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestTable(t *testing.T) {
	table := NewTable()
	table.Increment("http", "Disabled")
	table.Increment("http", "Disabled")
	table.Increment("http", "DisabledOnNative")
	table.Increment("amqp", "Disabled")

	if got := table.Modules(); len(got) != 2 || got[0] != "amqp" || got[1] != "http" {
		t.Errorf("Modules() = %v, want [amqp http]", got)
	}
	if got := table.Stats("http")["Disabled"]; got != 2 {
		t.Errorf("Stats(http)[Disabled] = %d, want 2", got)
	}
	if got := table.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
	if got := table.Stats("missing"); len(got) != 0 {
		t.Errorf("Stats(missing) = %v, want empty", got)
	}

	// Returned stats are copies.
	table.Stats("http").Increment("Disabled")
	if got := table.Stats("http")["Disabled"]; got != 2 {
		t.Errorf("Stats() leaked internal map, Disabled = %d", got)
	}
}

func TestSnapshotIncludesTestTotals(t *testing.T) {
	table := NewTable()
	table.Increment("http", "Disabled")
	table.AddTests("http", 10)
	table.AddTests("http", 5)
	table.AddTests("quiet", 3)

	snap := table.Snapshot()
	if got := snap["http"][TotalTestsKey]; got != 15 {
		t.Errorf("snapshot total_tests = %d, want 15", got)
	}
	if _, ok := snap["quiet"]; ok {
		t.Error("modules without annotations should not appear in the snapshot")
	}
	if got := table.TotalTests("quiet"); got != 3 {
		t.Errorf("TotalTests(quiet) = %d, want 3", got)
	}
	if got := snap["http"].Total(); got != 16 {
		t.Errorf("Stats.Total() = %d, want 16", got)
	}
}

func TestTableConcurrentIncrement(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Increment("m", "Disabled")
			}
		}()
	}
	wg.Wait()
	if got := table.Total(); got != 800 {
		t.Errorf("Total() = %d, want 800", got)
	}
}

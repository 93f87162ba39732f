package inspector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
	"github.com/quarkus-qe/quarkus-utilities/internal/slogutil"
	"github.com/quarkus-qe/quarkus-utilities/internal/source"
)

type fakeSource struct {
	branches map[string][]source.File
	calls    atomic.Int32
}

func (f *fakeSource) Files(ctx context.Context, branch string) ([]source.File, error) {
	f.calls.Add(1)
	files, ok := f.branches[branch]
	if !ok {
		return nil, errors.New("unknown branch " + branch)
	}
	return files, nil
}

func (f *fakeSource) Describe() string { return "fake" }

type lineCounter struct{}

func (lineCounter) Count(_ context.Context, src []byte) (int, error) {
	return strings.Count(string(src), "@Test"), nil
}

const httpIT = `package io.quarkus.ts.http;

public class HttpIT {
    @Disabled("https://github.com/quarkusio/quarkus/issues/123")
    @Test
    public void slow() {}

    @Test
    public void fast() {}
}
`

const nativeIT = `package io.quarkus.ts.nat;

@DisabledOnNative(reason = "QUARKUS-1234 not supported")
public class NativeIT {
    @Test
    void ok() {}
}
`

func newFakeSource() *fakeSource {
	return &fakeSource{branches: map[string][]source.File{
		"main": {
			{Path: "http/src/test/java/HttpIT.java", URL: "u1", Content: httpIT},
			{Path: "native/src/test/java/NativeIT.java", URL: "u2", Content: nativeIT},
		},
		"3.8": {
			{Path: "http/src/test/java/HttpIT.java", URL: "u3", Content: httpIT},
		},
	}}
}

func TestAnalyze(t *testing.T) {
	src := newFakeSource()
	var logs bytes.Buffer
	in := New(src, annotations.NewExtractor(annotations.Options{}), Options{
		Parallelism: 2,
		Counter:     lineCounter{},
		Logger:      slogutil.NewLogger(&logs, slogutil.LevelFromString("info")),
	})

	run, err := in.Analyze(context.Background(), "quarkus-qe/quarkus-test-suite", []string{"main", "3.8"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if len(run.Branches) != 2 || run.Branches[0].Branch != "main" || run.Branches[1].Branch != "3.8" {
		t.Fatalf("branches out of order: %+v", run.Branches)
	}
	if got := run.Records(); got != 3 {
		t.Errorf("Records() = %d, want 3", got)
	}
	if run.FinishedAt.Before(run.StartedAt) {
		t.Error("finished before started")
	}

	main := run.Branches[0]
	if main.Files != 2 {
		t.Errorf("Files = %d, want 2", main.Files)
	}
	if main.Records[0].TestName != "slow" || main.Records[1].TestName != annotations.AllTestsInClass {
		t.Errorf("records out of file order: %+v", main.Records)
	}
	if got := main.Modules.Stats("http")["Disabled"]; got != 1 {
		t.Errorf("http Disabled = %d, want 1", got)
	}
	if got := main.Modules.Stats("native")["DisabledOnNative"]; got != 1 {
		t.Errorf("native DisabledOnNative = %d, want 1", got)
	}
	if got := main.Modules.TotalTests("http"); got != 2 {
		t.Errorf("http tests = %d, want 2", got)
	}
	if got := main.Records[1].IssueLink; got != "https://issues.redhat.com/browse/QUARKUS-1234" {
		t.Errorf("synthesized link = %q", got)
	}

	out := logs.String()
	for _, want := range []string{
		"Starting analysis for quarkus-qe/quarkus-test-suite on branches: main, 3.8",
		"Analysis finished",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeSourceFailure(t *testing.T) {
	in := New(newFakeSource(), annotations.NewExtractor(annotations.Options{}), Options{})

	_, err := in.Analyze(context.Background(), "o/r", []string{"main", "missing"})
	if err == nil {
		t.Fatal("expected error for unknown branch")
	}
	if code := inserrors.CodeOf(err); code != inserrors.SourceUnavailable {
		t.Errorf("CodeOf() = %v, want %v", code, inserrors.SourceUnavailable)
	}
}

func TestAnalyzeLiteRun(t *testing.T) {
	in := New(newFakeSource(), annotations.NewExtractor(annotations.Options{Lite: true}), Options{})

	run, err := in.Analyze(context.Background(), "o/r", []string{"3.8"})
	if err != nil {
		t.Fatal(err)
	}
	if !run.Lite {
		t.Error("run should be marked lite")
	}
}

const osOnlyIT = `package io.quarkus.ts.os;

public class OsOnlyIT {
    @DisabledOnOs(OS.WINDOWS)
    @Test void noLsof() {}

    @DisabledOnNative
    @Test void nativeNoIssue() {}
}
`

func TestAnalyzeFilesLiteMatchesFilteredFull(t *testing.T) {
	files := []source.File{
		{Path: "http/src/test/java/HttpIT.java", URL: "u1", Content: httpIT},
		{Path: "native/src/test/java/NativeIT.java", URL: "u2", Content: nativeIT},
		{Path: "os/src/test/java/OsOnlyIT.java", URL: "u3", Content: osOnlyIT},
	}
	ctx := context.Background()
	full := New(nil, annotations.NewExtractor(annotations.Options{}), Options{}).AnalyzeFiles(ctx, "main", files)
	lite := New(nil, annotations.NewExtractor(annotations.Options{Lite: true}), Options{}).AnalyzeFiles(ctx, "main", files)

	policy := annotations.DefaultPolicy()
	var filtered []annotations.Record
	want := modules.NewTable()
	for _, r := range full.Records {
		if policy.Skip(r.AnnotationType, r.IssueLink) {
			continue
		}
		filtered = append(filtered, r)
		want.Increment(modules.ExtractModuleName(r.FilePath), r.AnnotationType)
	}

	if diff := cmp.Diff(filtered, lite.Records); diff != "" {
		t.Errorf("lite records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Snapshot(), lite.Modules.Snapshot()); diff != "" {
		t.Errorf("lite module table mismatch (-want +got):\n%s", diff)
	}
	if lite.Modules.Total() >= full.Modules.Total() {
		t.Errorf("lite total = %d, full total = %d; lite should drop records", lite.Modules.Total(), full.Modules.Total())
	}
}

func TestAnalyzeNoBranches(t *testing.T) {
	src := newFakeSource()
	in := New(src, annotations.NewExtractor(annotations.Options{}), Options{})

	run, err := in.Analyze(context.Background(), "o/r", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Branches) != 0 || src.calls.Load() != 0 {
		t.Errorf("expected empty run, got %d branches and %d calls", len(run.Branches), src.calls.Load())
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := New(newFakeSource(), annotations.NewExtractor(annotations.Options{}), Options{})

	if _, err := in.AnalyzeBranch(ctx, "main"); !errors.Is(err, context.Canceled) {
		t.Errorf("AnalyzeBranch() error = %v, want context.Canceled", err)
	}
}

func TestAnalyzeFilesWithoutCounter(t *testing.T) {
	in := New(newFakeSource(), annotations.NewExtractor(annotations.Options{}), Options{})
	result := in.AnalyzeFiles(context.Background(), "local", newFakeSource().branches["main"])

	if result.Modules.TotalTests("http") != 0 {
		t.Error("no counter means no test totals")
	}
	if len(result.Records) != 2 {
		t.Errorf("records = %d, want 2", len(result.Records))
	}
}

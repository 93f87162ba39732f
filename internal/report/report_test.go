package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
	"github.com/quarkus-qe/quarkus-utilities/internal/testutil"
)

func sampleRecords() []annotations.Record {
	return []annotations.Record{
		{
			TestName:       "grpcHealthCheck",
			ClassName:      "HttpAdvancedReactiveIT",
			AnnotationType: "Disabled",
			Reason:         "https://issues.redhat.com/browse/QUARKUS-3719",
			IssueLink:      "https://issues.redhat.com/browse/QUARKUS-3719",
			FileURL:        "https://github.com/o/r/blob/main/http/src/test/java/HttpAdvancedReactiveIT.java",
			FilePath:       "http/src/test/java/HttpAdvancedReactiveIT.java",
			Line:           12,
		},
		{
			TestName:       annotations.AllTestsInClass,
			ClassName:      "NativeIT",
			AnnotationType: "DisabledOnNative",
			FileURL:        "https://github.com/o/r/blob/main/native/src/test/java/NativeIT.java",
			FilePath:       "native/src/test/java/NativeIT.java",
			Line:           3,
		},
	}
}

func sampleTable() *modules.Table {
	tbl := modules.NewTable()
	tbl.Increment("http", "Disabled")
	tbl.Increment("native", "DisabledOnNative")
	tbl.AddTests("http", 10)
	return tbl
}

func TestFileName(t *testing.T) {
	tests := []struct {
		base, branch, format string
		stats                bool
		want                 string
	}{
		{"disabled-tests.json", "main", "json", false, "disabled-tests-main.json"},
		{"disabled-tests.json", "main", "json", true, "disabled-tests-main-stats.json"},
		{"disabled-tests", "3.8", "json", false, "disabled-tests-3.8.json"},
		{"disabled-tests.json", "main", "yaml", false, "disabled-tests-main.yaml"},
		{"out/report.JSON", "main", "toml", true, "out/report-main-stats.toml"},
		{"disabled-tests.json", "release/3.15", "json", false, "disabled-tests-release-3.15.json"},
		{"data.json.bak", "main", "json", false, "data.json.bak-main.json"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.base, tt.branch, tt.format, tt.stats))
		})
	}
}

func TestSanitizeBranch(t *testing.T) {
	assert.Equal(t, "feature-x", SanitizeBranch("feature/x"))
	assert.Equal(t, "branch", SanitizeBranch("///"))
	assert.Equal(t, "3.8", SanitizeBranch("3.8"))
}

func TestJSONNullableFields(t *testing.T) {
	data, err := Encode(FormatJSON, NewBranchReport("main", sampleRecords(), false))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "main", decoded["branch_name"])

	tests := decoded["disabled_tests"].([]any)
	require.Len(t, tests, 2)
	first := tests[0].(map[string]any)
	second := tests[1].(map[string]any)

	assert.Equal(t, "https://issues.redhat.com/browse/QUARKUS-3719", first["issue_link"])
	assert.Equal(t, false, first["issue_closed"])
	assert.Contains(t, second, "reason")
	assert.Nil(t, second["reason"])
	assert.Nil(t, second["issue_link"])
	assert.Equal(t, annotations.AllTestsInClass, second["test_name"])
	assert.NotContains(t, first, "file_path", "extended fields are off by default")
}

func TestJSONExtended(t *testing.T) {
	data, err := Encode(FormatJSON, NewBranchReport("main", sampleRecords(), true))
	require.NoError(t, err)

	var br BranchReport
	require.NoError(t, json.Unmarshal(data, &br))
	assert.Equal(t, "http/src/test/java/HttpAdvancedReactiveIT.java", br.DisabledTests[0].FilePath)
	assert.Equal(t, 12, br.DisabledTests[0].Line)
}

func TestEmptyBranchEncodesEmptyList(t *testing.T) {
	data, err := Encode(FormatJSON, NewBranchReport("main", nil, false))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"disabled_tests": []`)
}

func TestYAMLAndTOML(t *testing.T) {
	br := NewBranchReport("main", sampleRecords(), false)

	yamlData, err := Encode(FormatYAML, br)
	require.NoError(t, err)
	var fromYAML BranchReport
	require.NoError(t, yaml.Unmarshal(yamlData, &fromYAML))
	assert.Equal(t, br, fromYAML)
	assert.Contains(t, string(yamlData), "reason: null")

	tomlData, err := Encode(FormatTOML, br)
	require.NoError(t, err)
	var fromTOML BranchReport
	_, err = toml.Decode(string(tomlData), &fromTOML)
	require.NoError(t, err)
	assert.Equal(t, br, fromTOML)
	assert.Contains(t, string(tomlData), "[[disabled_tests]]")
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode("xml", BranchReport{})
	assert.Error(t, err)
}

func TestStatsReport(t *testing.T) {
	stats := NewStatsReport(sampleTable())
	assert.Equal(t, StatsReport{
		"http":   {"Disabled": 1, modules.TotalTestsKey: 10},
		"native": {"DisabledOnNative": 1},
	}, stats)
}

func TestWriterWritesAllFormats(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Options{
		BaseFileName: "disabled-tests.json",
		Formats:      []string{"json", "yaml"},
	}, NewFileSink(dir))
	require.NoError(t, err)

	files, err := w.WriteBranch(context.Background(), "main", sampleRecords(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"disabled-tests-main.json",
		"disabled-tests-main-stats.json",
		"disabled-tests-main.yaml",
		"disabled-tests-main-stats.yaml",
	}, files)

	data, err := os.ReadFile(filepath.Join(dir, "disabled-tests-main-stats.json"))
	require.NoError(t, err)
	var stats StatsReport
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 1, stats["http"]["Disabled"])
}

func TestWriterGolden(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Options{Extended: true}, NewFileSink(dir))
	require.NoError(t, err)

	_, err = w.WriteBranch(context.Background(), "release/3.8", sampleRecords(), sampleTable())
	require.NoError(t, err)

	for name, file := range map[string]string{
		"branch_extended": "disabled-tests-release-3.8.json",
		"branch_stats":    "disabled-tests-release-3.8-stats.json",
	} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		require.NoError(t, err)
		testutil.CompareGolden(t, name, data, testutil.Normalizer{Root: dir})
	}
}

func TestWriterGzip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Options{Gzip: true}, NewFileSink(dir))
	require.NoError(t, err)

	files, err := w.WriteBranch(context.Background(), "main", sampleRecords(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"disabled-tests-main.json.gz", "disabled-tests-main-stats.json.gz"}, files)

	f, err := os.Open(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"branch_name": "main"`)
}

func TestNewWriterValidation(t *testing.T) {
	_, err := NewWriter(Options{})
	assert.Error(t, err, "no sinks")

	_, err = NewWriter(Options{Formats: []string{"csv"}}, NewFileSink(t.TempDir()))
	assert.Error(t, err)
}

type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string][]byte
	headers map[string]http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = body
		f.headers[r.URL.Path] = r.Header.Clone()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Sink(t *testing.T) {
	fake := &fakeS3{puts: map[string][]byte{}, headers: map[string]http.Header{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	sink, err := NewS3Sink(S3Options{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Bucket:    "reports",
		Prefix:    "/disabled-tests/",
		AccessKey: "key",
		SecretKey: "secret",
	}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "disabled-tests/run-1/a.json", sink.Key("a.json"))
	assert.Equal(t, "s3://reports/disabled-tests/run-1", sink.Describe())

	payload := []byte(`{"branch_name":"main"}`)
	require.NoError(t, sink.Put(context.Background(), "a.json", payload, "application/json"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	body, ok := fake.puts["/reports/disabled-tests/run-1/a.json"]
	require.True(t, ok, "object not uploaded: %v", fake.puts)
	assert.True(t, bytes.Contains(body, payload))
	assert.Equal(t, "application/json", fake.headers["/reports/disabled-tests/run-1/a.json"].Get("Content-Type"))
}

func TestNewS3SinkValidation(t *testing.T) {
	_, err := NewS3Sink(S3Options{Bucket: "b"}, "")
	assert.Error(t, err)
	_, err = NewS3Sink(S3Options{Endpoint: "localhost:9000"}, "")
	assert.Error(t, err)

	sink, err := NewS3Sink(S3Options{Endpoint: "localhost:9000", Bucket: "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, "x.json", sink.Key("x.json"))
}

func TestHumanRenderRecords(t *testing.T) {
	var buf bytes.Buffer
	h := &Human{}
	recs := sampleRecords()
	recs[0].IssueClosed = true

	require.NoError(t, h.RenderRecords(&buf, "main", recs))
	out := buf.String()
	assert.Contains(t, out, "Branch main: 2 disabled")
	assert.Contains(t, out, "grpcHealthCheck")
	assert.Contains(t, out, "closed")
	assert.NotContains(t, out, "\x1b[", "no colour without a terminal")
}

func TestHumanRenderStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Human{}).RenderStats(&buf, sampleTable()))
	out := buf.String()
	for _, want := range []string{"Module", "DisabledOnNative", "http", "native", "10"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	require.NoError(t, (&Human{}).RenderStats(&buf, modules.NewTable()))
	assert.Empty(t, buf.String())
}

func TestNewHumanNotTTY(t *testing.T) {
	assert.False(t, NewHuman(&bytes.Buffer{}).Color)
}

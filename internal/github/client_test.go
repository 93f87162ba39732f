package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(Options{
		APIBase:        url,
		Token:          "secret",
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/quarkus-qe/suite/git/trees/main" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("recursive = %q, want 1", r.URL.Query().Get("recursive"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"sha":"abc","truncated":false,"tree":[
			{"path":"http/src/test/java/FooIT.java","type":"blob","sha":"1"},
			{"path":"http/src/test/java","type":"tree","sha":"2"}
		]}`))
	}))
	defer srv.Close()

	tree, err := newTestClient(srv.URL).Tree(context.Background(), "quarkus-qe", "suite", "main")
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if len(tree.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(tree.Entries))
	}
	blobs := tree.Blobs()
	if len(blobs) != 1 || blobs[0].Path != "http/src/test/java/FooIT.java" {
		t.Errorf("Blobs() = %+v", blobs)
	}
}

func TestFileContentUsesRawMediaType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != mediaTypeRaw {
			t.Errorf("Accept = %q, want %q", got, mediaTypeRaw)
		}
		if r.URL.Query().Get("ref") != "3.8" {
			t.Errorf("ref = %q, want 3.8", r.URL.Query().Get("ref"))
		}
		if r.URL.Path != "/repos/o/r/contents/a/src/test/My Test.java" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte("class MyTest {}"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).FileContent(context.Background(), "o", "r", "a/src/test/My Test.java", "3.8")
	if err != nil {
		t.Fatalf("FileContent() error = %v", err)
	}
	if string(data) != "class MyTest {}" {
		t.Errorf("FileContent() = %q", data)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"number":7,"state":"closed","title":"t"}`))
	}))
	defer srv.Close()

	issue, err := newTestClient(srv.URL).Issue(context.Background(), "o", "r", 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !issue.Closed() {
		t.Errorf("Closed() = false, want true")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Issue(context.Background(), "o", "r", 1)
	if !IsNotFound(err) {
		t.Fatalf("Issue() error = %v, want not found", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Issue(context.Background(), "o", "r", 1); err == nil {
		t.Fatal("Issue() expected error")
	}
}

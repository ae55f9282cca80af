package staging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestHTTPDownloader_WritesArchive(t *testing.T) {
	t.Parallel()

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("archive bytes"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "movie.zip")
	d := NewHTTPDownloader(ts.Client(), "harvester-test")

	if err := d.Download(context.Background(), ts.URL+"/movie.zip", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "archive bytes" {
		t.Errorf("artifact content = %q", data)
	}
	if gotUA != "harvester-test" {
		t.Errorf("User-Agent = %q, want harvester-test", gotUA)
	}
}

func TestHTTPDownloader_NonOKStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "missing.zip")
	d := NewHTTPDownloader(ts.Client(), "harvester-test")

	if err := d.Download(context.Background(), ts.URL+"/missing.zip", dest); err == nil {
		t.Fatal("expected error for 404 response")
	}

	// Neither the artifact nor a leftover partial file may exist.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("destination dir should be empty, found %d entries", len(entries))
	}
}

func TestHTTPDownloader_NoPartialFileLeftBehind(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("complete"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ok.zip")
	d := NewHTTPDownloader(ts.Client(), "harvester-test")

	if err := d.Download(context.Background(), ts.URL+"/ok.zip", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "ok.zip" {
		t.Errorf("expected only ok.zip in dir, got %v", entries)
	}
}

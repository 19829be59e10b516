package utils

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGetCacheFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/data/land.geojson", "land.geojson"},
		{"https://example.com/api/v3/data-centers", "data-centers"},
		{"https://example.com/api/v3/data-centers/", "data-centers"},
		{"https://example.com/file.json?v=2", "file.json"},
	}
	for _, tt := range tests {
		if got := GetCacheFileName(tt.url); got != tt.want {
			t.Errorf("GetCacheFileName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestGetCachedReader(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		hits++
		_, _ = io.WriteString(w, "payload")
	}))
	defer srv.Close()

	ctx := context.Background()
	cacheDir := filepath.Join(t.TempDir(), "cache")

	for i := 0; i < 2; i++ {
		rc, err := GetCachedReader(ctx, srv.Client(), srv.URL+"/land.json", cacheDir)
		if err != nil {
			t.Fatalf("GetCachedReader: %v", err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		if string(body) != "payload" {
			t.Errorf("body = %q", body)
		}
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 with cache", hits)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "land.json")); err != nil {
		t.Errorf("cache file missing: %v", err)
	}

	rc, err := GetCachedReader(ctx, srv.Client(), srv.URL+"/land.json", "")
	if err != nil {
		t.Fatalf("uncached GetCachedReader: %v", err)
	}
	_ = rc.Close()
	if hits != 2 {
		t.Errorf("server hits = %d, want 2 without cache", hits)
	}

	if _, err := GetCachedReader(ctx, srv.Client(), srv.URL+"/missing.json", cacheDir); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "missing.json")); !os.IsNotExist(err) {
		t.Error("failed download left a cache file")
	}
}

func TestProgressWriterTracksLoggedTotal(t *testing.T) {
	pw := &progressWriter{Writer: io.Discard, label: "land.geojson"}
	chunk := make([]byte, 1024*1024)
	for range 6 {
		if n, err := pw.Write(chunk); err != nil || n != len(chunk) {
			t.Fatalf("Write = %d, %v", n, err)
		}
	}
	if pw.total != 6*1024*1024 {
		t.Errorf("total = %d", pw.total)
	}
	if pw.last != pw.total {
		t.Errorf("last logged at %d, want %d", pw.last, pw.total)
	}
}

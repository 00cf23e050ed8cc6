package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validDocument = `{
	"lastUpdated": "2025-01-01",
	"apps": [
		{"name": "Example", "bundleIdentifier": "com.x.app", "latestVersion": "1.1", "downloadURL": "https://example.com/dl"}
	]
}`

func TestLoadSample(t *testing.T) {
	l := NewLoader(time.Second)
	cat, err := l.Load(context.Background(), Source{UseSample: true})
	if err != nil {
		t.Fatalf("sample load failed: %v", err)
	}
	if len(cat.Apps) == 0 {
		t.Fatal("sample catalog should have entries")
	}
	for _, entry := range cat.Apps {
		if entry.Name == "" || entry.LatestVersion == "" || entry.DownloadURL == "" {
			t.Fatalf("sample entry missing required fields: %+v", entry)
		}
	}
}

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(validDocument), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := SourceFromConfig(false, path)
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	cat, err := NewLoader(time.Second).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Apps) != 1 || cat.Apps[0].BundleIdentifier != "com.x.app" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
	if cat.LastUpdated != "2025-01-01" {
		t.Fatalf("expected lastUpdated preserved, got %q", cat.LastUpdated)
	}
}

func TestLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validDocument))
	}))
	defer srv.Close()

	src, err := SourceFromConfig(false, srv.URL)
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	cat, err := NewLoader(time.Second).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Apps) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(cat.Apps))
	}
}

func TestSourceFromConfigRejectsEmptyURL(t *testing.T) {
	_, err := SourceFromConfig(false, "   ")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestSourceFromConfigRejectsUnknownScheme(t *testing.T) {
	_, err := SourceFromConfig(false, "ftp://example.com/catalog.json")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestDecodeFailureOnMissingApps(t *testing.T) {
	_, err := decode([]byte(`{"lastUpdated": "2025-01-01"}`))
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed for missing apps, got %v", err)
	}
}

func TestDecodeFailureOnMalformedJSON(t *testing.T) {
	_, err := decode([]byte(`{not json`))
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestDecodeSkipsIncompleteEntries(t *testing.T) {
	cat, err := decode([]byte(`{"apps": [
		{"name": "X"},
		{"name": "Kept", "latestVersion": "2.0", "downloadURL": "https://dl"},
		{"name": "NoURL", "latestVersion": "1.0", "downloadURL": ""}
	]}`))
	if err != nil {
		t.Fatalf("incomplete entries must not fail the document: %v", err)
	}
	if len(cat.Apps) != 1 || cat.Apps[0].Name != "Kept" {
		t.Fatalf("expected only the complete entry kept, got %+v", cat.Apps)
	}
}

func TestDecodeAllowsEmptyApps(t *testing.T) {
	cat, err := decode([]byte(`{"apps": []}`))
	if err != nil {
		t.Fatalf("empty apps array should decode: %v", err)
	}
	if len(cat.Apps) != 0 {
		t.Fatal("expected empty catalog")
	}
}

func TestLoadRemoteDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer srv.Close()

	src, _ := SourceFromConfig(false, srv.URL)
	_, err := NewLoader(time.Second).Load(context.Background(), src)
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

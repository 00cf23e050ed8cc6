package selfupdate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestChecker(t *testing.T, handler http.HandlerFunc) *Checker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewChecker(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestCheckUpdateAvailable(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/patchpilot/patchpilot/releases/latest" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"tag_name": "v1.2.0", "html_url": "https://github.com/r", "body": "Fixes."}`))
	})

	info, err := c.Check(context.Background(), "1.1.0")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if info == nil || !info.UpdateAvailable {
		t.Fatalf("expected update available, got %+v", info)
	}
	if info.LatestVersion != "v1.2.0" || info.ReleaseURL != "https://github.com/r" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestCheckUpToDate(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v1.1.0"}`))
	})

	info, err := c.Check(context.Background(), "1.1.0")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if info.UpdateAvailable {
		t.Fatalf("expected up to date, got %+v", info)
	}
}

func TestCheckSkipsDevBuilds(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("dev builds must not hit the network")
	})

	for _, v := range []string{"", "dev", "development", "snapshot-build"} {
		info, err := c.Check(context.Background(), v)
		if err != nil || info != nil {
			t.Fatalf("version %q: expected silent skip, got %+v, %v", v, info, err)
		}
	}
}

func TestCheckRateLimited(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Check(context.Background(), "1.0.0")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestCheckServerError(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Check(context.Background(), "1.0.0")
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
}

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/patchpilot/patchpilot/internal/appcast"
	"github.com/patchpilot/patchpilot/internal/catalog"
	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/homebrew"
	"github.com/patchpilot/patchpilot/internal/merge"
	"github.com/patchpilot/patchpilot/internal/scanner"
)

func testEngine() *Engine {
	cfg := config.Default()
	cfg.IncludeHomebrew = true
	return &Engine{
		cfg: cfg,
		scan: func() ([]scanner.InstalledApp, error) {
			return []scanner.InstalledApp{
				{ID: "com.x.app", Name: "Example", BundleID: "com.x.app", Version: "1.0"},
				{ID: "com.y.app", Name: "Other", BundleID: "com.y.app", Version: "2.0"},
			}, nil
		},
		loadCatalog: func(ctx context.Context) (*catalog.Catalog, error) {
			return &catalog.Catalog{Apps: []catalog.Entry{
				{Name: "Example", BundleIdentifier: "com.x.app", LatestVersion: "1.1", DownloadURL: "https://dl"},
			}}, nil
		},
		fetchAppcasts: func(ctx context.Context, apps []scanner.InstalledApp) map[string]appcast.Entry {
			return map[string]appcast.Entry{}
		},
		fetchBrew: func(ctx context.Context) ([]homebrew.UpdateRow, error) {
			return []homebrew.UpdateRow{{ID: "formula-wget", Name: "wget"}}, nil
		},
	}
}

func TestRefresh(t *testing.T) {
	e := testEngine()
	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].Status != merge.StatusUpdateAvailable {
		t.Fatalf("expected update_available for Example, got %q", res.Rows[0].Status)
	}
	if res.Rows[1].Status != merge.StatusUnknown {
		t.Fatalf("expected unknown for unmatched app, got %q", res.Rows[1].Status)
	}
	if res.UpdateCount() != 1 {
		t.Fatalf("expected 1 update, got %d", res.UpdateCount())
	}
	if len(res.BrewRows) != 1 {
		t.Fatalf("expected brew rows to be carried, got %d", len(res.BrewRows))
	}
	if res.CheckedAt.IsZero() {
		t.Fatal("expected CheckedAt to be set")
	}
	if e.Last() != res {
		t.Fatal("Last should return the most recent result")
	}
}

func TestRefreshRejectsReentry(t *testing.T) {
	e := testEngine()

	release := make(chan struct{})
	started := make(chan struct{})
	e.loadCatalog = func(ctx context.Context) (*catalog.Catalog, error) {
		close(started)
		<-release
		return &catalog.Catalog{Apps: []catalog.Entry{}}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.Refresh(context.Background()); err != nil {
			t.Errorf("first refresh failed: %v", err)
		}
	}()

	<-started
	if _, err := e.Refresh(context.Background()); !errors.Is(err, ErrCheckInProgress) {
		t.Fatalf("expected ErrCheckInProgress, got %v", err)
	}

	close(release)
	wg.Wait()

	// the guard resets once the first refresh finishes
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after completion failed: %v", err)
	}
}

func TestRefreshCatalogFailureDegrades(t *testing.T) {
	e := testEngine()
	e.loadCatalog = func(ctx context.Context) (*catalog.Catalog, error) {
		return nil, catalog.ErrDecodeFailed
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("catalog failure must not abort the cycle: %v", err)
	}
	if !errors.Is(res.CatalogErr, catalog.ErrDecodeFailed) {
		t.Fatalf("expected catalog error attached, got %v", res.CatalogErr)
	}
	for _, row := range res.Rows {
		if row.Status != merge.StatusUnknown {
			t.Fatalf("expected all rows unknown, got %q for %s", row.Status, row.App.Name)
		}
	}
	if len(res.BrewRows) != 1 {
		t.Fatal("brew rows should survive a catalog failure")
	}
}

func TestRefreshCatalogFailureDropsFeedMatches(t *testing.T) {
	e := testEngine()
	e.loadCatalog = func(ctx context.Context) (*catalog.Catalog, error) {
		return nil, catalog.ErrDecodeFailed
	}
	e.fetchAppcasts = func(ctx context.Context, apps []scanner.InstalledApp) map[string]appcast.Entry {
		return map[string]appcast.Entry{
			"com.x.app": {LatestVersion: "3.0", DownloadURL: "https://vendor"},
		}
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	for _, row := range res.Rows {
		if row.Status != merge.StatusUnknown {
			t.Fatalf("feed match must not survive a catalog failure, got %q for %s", row.Status, row.App.Name)
		}
		if row.Update != nil {
			t.Fatalf("expected no update info on degraded row, got %+v", row.Update)
		}
	}
}

func TestRefreshBrewFailureIsolated(t *testing.T) {
	e := testEngine()
	brewErr := errors.New("brew exploded")
	e.fetchBrew = func(ctx context.Context) ([]homebrew.UpdateRow, error) {
		return nil, brewErr
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("brew failure must not abort the cycle: %v", err)
	}
	if !errors.Is(res.BrewErr, brewErr) {
		t.Fatalf("expected brew error attached, got %v", res.BrewErr)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("merged rows should survive a brew failure, got %d", len(res.Rows))
	}
}

func TestRefreshHomebrewDisabled(t *testing.T) {
	e := testEngine()
	e.cfg.IncludeHomebrew = false
	e.fetchBrew = func(ctx context.Context) ([]homebrew.UpdateRow, error) {
		t.Fatal("brew must not be queried when disabled")
		return nil, nil
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(res.BrewRows) != 0 {
		t.Fatalf("expected no brew rows, got %d", len(res.BrewRows))
	}
}

func TestRefreshAppcastWins(t *testing.T) {
	e := testEngine()
	e.fetchAppcasts = func(ctx context.Context, apps []scanner.InstalledApp) map[string]appcast.Entry {
		return map[string]appcast.Entry{
			"com.x.app": {LatestVersion: "3.0", DownloadURL: "https://vendor"},
		}
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	row := res.Rows[0]
	if row.Update == nil || row.Update.Provenance != merge.ProvenanceAppcast {
		t.Fatalf("expected appcast provenance, got %+v", row.Update)
	}
	if row.Update.LatestVersion != "3.0" {
		t.Fatalf("expected feed version 3.0, got %q", row.Update.LatestVersion)
	}
}

func TestRefreshScanFailure(t *testing.T) {
	e := testEngine()
	scanErr := errors.New("roots unreadable")
	e.scan = func() ([]scanner.InstalledApp, error) { return nil, scanErr }

	if _, err := e.Refresh(context.Background()); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}

	// the guard must reset after a failed cycle
	e.scan = func() ([]scanner.InstalledApp, error) { return nil, nil }
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after scan failure should work: %v", err)
	}
}

func TestNewValidatesCatalogSource(t *testing.T) {
	cfg := config.Default()
	cfg.UseSampleCatalog = false
	cfg.CatalogURL = ""

	if _, err := New(cfg); !errors.Is(err, catalog.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestResultUpdateCountEmpty(t *testing.T) {
	res := &Result{CheckedAt: time.Now()}
	if res.UpdateCount() != 0 {
		t.Fatal("empty result should count zero updates")
	}
}

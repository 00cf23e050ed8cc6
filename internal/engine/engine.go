// Package engine orchestrates one refresh cycle: scan the installed
// inventory, then fetch the catalog, per-app feeds, and Homebrew state
// concurrently, and merge the results into classified rows.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patchpilot/patchpilot/internal/appcast"
	"github.com/patchpilot/patchpilot/internal/catalog"
	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/homebrew"
	"github.com/patchpilot/patchpilot/internal/logging"
	"github.com/patchpilot/patchpilot/internal/merge"
	"github.com/patchpilot/patchpilot/internal/scanner"
)

var log = logging.L("engine")

// ErrCheckInProgress rejects a refresh while another one is running.
var ErrCheckInProgress = errors.New("a check is already in progress")

// Result is the outcome of one refresh cycle. Source failures are carried
// alongside the data rather than replacing it: a dead catalog still yields
// rows (all unknown), a dead brew still yields the merged rows.
type Result struct {
	Rows       []merge.Row          `json:"rows"`
	BrewRows   []homebrew.UpdateRow `json:"brewRows,omitempty"`
	CheckedAt  time.Time            `json:"checkedAt"`
	CatalogErr error                `json:"-"`
	BrewErr    error                `json:"-"`
}

// UpdateCount reports how many rows have an update available.
func (r *Result) UpdateCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.Status == merge.StatusUpdateAvailable {
			n++
		}
	}
	return n
}

// Engine runs refresh cycles. The function fields are replaceable in tests;
// New wires them to the real collaborators.
type Engine struct {
	cfg *config.Config

	scan          func() ([]scanner.InstalledApp, error)
	loadCatalog   func(ctx context.Context) (*catalog.Catalog, error)
	fetchAppcasts func(ctx context.Context, apps []scanner.InstalledApp) map[string]appcast.Entry
	fetchBrew     func(ctx context.Context) ([]homebrew.UpdateRow, error)

	checking atomic.Bool

	mu   sync.Mutex
	last *Result
}

// New builds an Engine from the configuration.
func New(cfg *config.Config) (*Engine, error) {
	src, err := catalog.SourceFromConfig(cfg.UseSampleCatalog, cfg.CatalogURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.FetchTimeout()
	sc := scanner.New()
	loader := catalog.NewLoader(timeout)
	fetcher := appcast.NewFetcher(timeout)
	brew := homebrew.NewService()

	e := &Engine{
		cfg: cfg,
		scan: func() ([]scanner.InstalledApp, error) {
			return sc.Scan(scanner.Options{
				ExcludeSystemApps:   cfg.ExcludeSystemApps,
				ExcludeAppStoreApps: cfg.ExcludeAppStoreApps,
			}), nil
		},
		loadCatalog: func(ctx context.Context) (*catalog.Catalog, error) {
			return loader.Load(ctx, src)
		},
		fetchBrew: brew.FetchOutdated,
	}
	if cfg.CheckAppcasts {
		e.fetchAppcasts = fetcher.FetchEntries
	}
	return e, nil
}

// Refresh runs one full cycle. Only one refresh may run at a time; a second
// caller gets ErrCheckInProgress immediately. The inventory scan happens
// first, then the three remote sources run concurrently. Per-source failures
// are isolated: they degrade that source's contribution and are reported in
// the Result, never aborting the cycle.
func (e *Engine) Refresh(ctx context.Context) (*Result, error) {
	if !e.checking.CompareAndSwap(false, true) {
		return nil, ErrCheckInProgress
	}
	defer e.checking.Store(false)

	started := time.Now()
	installed, err := e.scan()
	if err != nil {
		return nil, err
	}
	log.Debug("inventory scanned", "apps", len(installed))

	var (
		wg         sync.WaitGroup
		cat        *catalog.Catalog
		catErr     error
		feeds      map[string]appcast.Entry
		brewRows   []homebrew.UpdateRow
		brewErr    error
		brewWanted = e.cfg.IncludeHomebrew && e.fetchBrew != nil
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		cat, catErr = e.loadCatalog(ctx)
	}()

	if e.fetchAppcasts != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feeds = e.fetchAppcasts(ctx, installed)
		}()
	}

	if brewWanted {
		wg.Add(1)
		go func() {
			defer wg.Done()
			brewRows, brewErr = e.fetchBrew(ctx)
		}()
	}

	wg.Wait()

	var entries []catalog.Entry
	if catErr != nil {
		// The primary merge degrades as one unit: feed matches are dropped
		// along with the catalog so every row comes back unknown.
		log.Warn("catalog load failed, rows degrade to unknown", "error", catErr)
		feeds = nil
	} else {
		entries = cat.Apps
	}
	if brewErr != nil {
		log.Warn("homebrew check failed", "error", brewErr)
	}

	result := &Result{
		Rows:       merge.Merge(installed, entries, feeds),
		BrewRows:   brewRows,
		CheckedAt:  time.Now(),
		CatalogErr: catErr,
		BrewErr:    brewErr,
	}

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	log.Info("check complete",
		"apps", len(result.Rows),
		"updates", result.UpdateCount(),
		"brew", len(result.BrewRows),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

// Last returns the most recent refresh result, or nil before the first one.
func (e *Engine) Last() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

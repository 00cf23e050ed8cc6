package appcast

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/patchpilot/patchpilot/internal/httputil"
	"github.com/patchpilot/patchpilot/internal/logging"
	"github.com/patchpilot/patchpilot/internal/scanner"
)

var log = logging.L("appcast")

// Entry is the latest release resolved from one application's feed.
type Entry struct {
	LatestVersion string
	DownloadURL   string
	Notes         string
}

// Fetcher resolves feed URLs into latest-release entries.
type Fetcher struct {
	client *http.Client
	retry  httputil.RetryConfig
}

// NewFetcher returns a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		retry:  httputil.DefaultRetryConfig(),
	}
}

// FetchEntries fetches every app's feed concurrently and returns the latest
// entry per app ID. Apps without a feed URL are skipped; a feed that fails to
// fetch, parse, or yield a versioned item contributes nothing. One bad feed
// never affects another.
func (f *Fetcher) FetchEntries(ctx context.Context, apps []scanner.InstalledApp) map[string]Entry {
	type result struct {
		id    string
		entry Entry
		ok    bool
	}

	var targets []scanner.InstalledApp
	for _, app := range apps {
		if app.FeedURL != "" {
			targets = append(targets, app)
		}
	}

	entries := make(map[string]Entry, len(targets))
	if len(targets) == 0 {
		return entries
	}

	ch := make(chan result, len(targets))
	var wg sync.WaitGroup
	for _, app := range targets {
		wg.Add(1)
		go func(id, feedURL string) {
			defer wg.Done()

			body, err := httputil.Get(ctx, f.client, feedURL, f.retry)
			if err != nil {
				log.Debug("feed fetch failed", "app", id, "url", feedURL, "error", err)
				ch <- result{id: id}
				return
			}

			best, ok := SelectLatest(Parse(bytes.NewReader(body)))
			if !ok {
				log.Debug("feed yielded no versioned items", "app", id, "url", feedURL)
				ch <- result{id: id}
				return
			}

			ch <- result{
				id: id,
				ok: true,
				entry: Entry{
					LatestVersion: best.DisplayVersion(),
					DownloadURL:   best.DownloadURL,
					Notes:         best.Notes,
				},
			}
		}(app.ID, app.FeedURL)
	}
	wg.Wait()
	close(ch)

	for res := range ch {
		if res.ok {
			entries[res.id] = res.entry
		}
	}
	log.Debug("appcast fetch complete", "feeds", len(targets), "resolved", len(entries))
	return entries
}

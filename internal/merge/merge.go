// Package merge resolves installed applications against update sources and
// classifies each row's status.
package merge

import (
	"sort"
	"strings"

	"github.com/patchpilot/patchpilot/internal/appcast"
	"github.com/patchpilot/patchpilot/internal/appver"
	"github.com/patchpilot/patchpilot/internal/catalog"
	"github.com/patchpilot/patchpilot/internal/scanner"
)

// Status classifies an installed app relative to its best update record.
type Status string

const (
	StatusUpToDate        Status = "up_to_date"
	StatusUpdateAvailable Status = "update_available"
	StatusUnknown         Status = "unknown"
)

// Provenance records which source supplied the winning update record.
type Provenance string

const (
	ProvenanceAppcast Provenance = "appcast"
	ProvenanceCatalog Provenance = "catalog"
)

// UpdateInfo is the normalized result of a match against one source.
type UpdateInfo struct {
	LatestVersion string     `json:"latestVersion"`
	DownloadURL   string     `json:"downloadURL,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

// Row is one installed application with its resolved update state.
type Row struct {
	ID     string               `json:"id"`
	App    scanner.InstalledApp `json:"app"`
	Update *UpdateInfo          `json:"update,omitempty"`
	Status Status               `json:"status"`
}

// LatestVersionText is the display form of the resolved latest version.
func (r Row) LatestVersionText() string {
	if r.Update == nil || r.Update.LatestVersion == "" {
		return "—"
	}
	return r.Update.LatestVersion
}

// Merge resolves each installed app against appcast and catalog results.
// Priority is fixed: the app's own vendor feed always beats the aggregated
// catalog; within the catalog, a bundle identifier match beats a display
// name match. Rows come back sorted by name, case-insensitively.
func Merge(installed []scanner.InstalledApp, entries []catalog.Entry, feeds map[string]appcast.Entry) []Row {
	byIdentifier := make(map[string]catalog.Entry, len(entries))
	byName := make(map[string]catalog.Entry, len(entries))
	for _, entry := range entries {
		if id := strings.ToLower(entry.BundleIdentifier); id != "" {
			if _, exists := byIdentifier[id]; !exists {
				byIdentifier[id] = entry
			}
		}
		if name := strings.ToLower(entry.Name); name != "" {
			if _, exists := byName[name]; !exists {
				byName[name] = entry
			}
		}
	}

	rows := make([]Row, 0, len(installed))
	for _, app := range installed {
		update := resolve(app, byIdentifier, byName, feeds)
		rows = append(rows, Row{
			ID:     app.ID,
			App:    app,
			Update: update,
			Status: classify(app, update),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].App.Name) < strings.ToLower(rows[j].App.Name)
	})
	return rows
}

func resolve(app scanner.InstalledApp, byIdentifier, byName map[string]catalog.Entry, feeds map[string]appcast.Entry) *UpdateInfo {
	if feed, ok := feeds[app.ID]; ok {
		return &UpdateInfo{
			LatestVersion: feed.LatestVersion,
			DownloadURL:   feed.DownloadURL,
			Notes:         feed.Notes,
			Provenance:    ProvenanceAppcast,
		}
	}

	if id := strings.ToLower(app.BundleID); id != "" {
		if entry, ok := byIdentifier[id]; ok {
			return catalogInfo(entry)
		}
	}
	if entry, ok := byName[strings.ToLower(app.Name)]; ok {
		return catalogInfo(entry)
	}
	return nil
}

func catalogInfo(entry catalog.Entry) *UpdateInfo {
	return &UpdateInfo{
		LatestVersion: entry.LatestVersion,
		DownloadURL:   entry.DownloadURL,
		Notes:         entry.Notes,
		Provenance:    ProvenanceCatalog,
	}
}

// classify never reports update_available without a comparable installed
// version: an unknowable comparison degrades to unknown, not a false alarm.
func classify(app scanner.InstalledApp, update *UpdateInfo) Status {
	if update == nil {
		return StatusUnknown
	}
	installed, ok := app.ComparisonVersion()
	if !ok {
		return StatusUnknown
	}
	if appver.IsNewer(update.LatestVersion, installed) {
		return StatusUpdateAvailable
	}
	return StatusUpToDate
}

// FilterRows narrows rows to those matching a case-insensitive name or
// bundle identifier substring, and optionally to update-available rows only.
func FilterRows(rows []Row, query string, updatesOnly bool) []Row {
	query = strings.ToLower(strings.TrimSpace(query))

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if updatesOnly && row.Status != StatusUpdateAvailable {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(row.App.Name), query) &&
			!strings.Contains(strings.ToLower(row.App.BundleID), query) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

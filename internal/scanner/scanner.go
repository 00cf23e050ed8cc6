// Package scanner discovers installed application bundles and extracts the
// identity and version metadata the update engine matches against.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/patchpilot/patchpilot/internal/logging"
)

var log = logging.L("scanner")

const bundleExt = ".app"

// systemPathPrefixes mark bundles the OS owns and updates itself.
var systemPathPrefixes = []string{
	"/System/Applications",
	"/System/Library/CoreServices/Applications",
	"/System/Library",
}

const systemBundlePrefix = "com.apple."

// InstalledApp is one discovered application bundle. Produced fresh on every
// scan and never mutated afterwards.
type InstalledApp struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BundleID        string `json:"bundleIdentifier,omitempty"`
	Path            string `json:"path"`
	Version         string `json:"version,omitempty"`
	Build           string `json:"build,omitempty"`
	FeedURL         string `json:"feedURL,omitempty"`
	SystemManaged   bool   `json:"systemManaged,omitempty"`
	AppStoreManaged bool   `json:"appStoreManaged,omitempty"`
}

// DisplayVersion returns the version for human output, falling back to the
// build number and then a placeholder.
func (a InstalledApp) DisplayVersion() string {
	if a.Version != "" {
		return a.Version
	}
	if a.Build != "" {
		return a.Build
	}
	return "—"
}

// ComparisonVersion returns the string used for update comparison. The second
// return is false when the bundle carries no version information at all.
func (a InstalledApp) ComparisonVersion() (string, bool) {
	if a.Version != "" {
		return a.Version, true
	}
	if a.Build != "" {
		return a.Build, true
	}
	return "", false
}

// Options filter the scan result.
type Options struct {
	ExcludeSystemApps   bool
	ExcludeAppStoreApps bool
}

// Scanner walks application roots for bundles. The metadata reader is a field
// so tests can substitute fixture data for plutil.
type Scanner struct {
	roots      []string
	readBundle func(bundlePath string) (*bundleInfo, error)
	hasReceipt func(bundlePath string) bool
}

// New returns a Scanner over the standard application directories.
func New() *Scanner {
	return &Scanner{
		roots:      defaultRoots(),
		readBundle: readInfoPlist,
		hasReceipt: hasAppStoreReceipt,
	}
}

func defaultRoots() []string {
	roots := []string{
		"/Applications",
		"/System/Applications",
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return roots
}

// Scan walks every root in order, collecting application bundles. Hidden
// entries are skipped and located bundles are not descended into. Duplicates
// (same bundle identifier found under multiple roots) keep the first
// occurrence. Output is sorted case-insensitively by display name.
func (s *Scanner) Scan(opts Options) []InstalledApp {
	var found []InstalledApp

	for _, root := range s.roots {
		if _, err := os.Stat(root); err != nil {
			// Unreadable or missing roots are skipped, not fatal
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Debug("skipping unreadable entry", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() || filepath.Ext(d.Name()) != bundleExt {
				return nil
			}

			if app, ok := s.fromBundle(path); ok {
				if opts.ExcludeSystemApps && app.SystemManaged {
					return fs.SkipDir
				}
				if opts.ExcludeAppStoreApps && app.AppStoreManaged {
					return fs.SkipDir
				}
				found = append(found, app)
			}

			// Never descend into a located bundle
			return fs.SkipDir
		})
		if err != nil {
			log.Warn("walk failed", "root", root, "error", err)
		}
	}

	unique := make(map[string]bool, len(found))
	apps := found[:0]
	for _, app := range found {
		key := app.ID
		if unique[key] {
			continue
		}
		unique[key] = true
		apps = append(apps, app)
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})

	return apps
}

// fromBundle reads bundle metadata and classifies provenance. Bundles whose
// metadata cannot be read are skipped.
func (s *Scanner) fromBundle(bundlePath string) (InstalledApp, bool) {
	info, err := s.readBundle(bundlePath)
	if err != nil {
		log.Debug("skipping bundle without readable metadata", "path", bundlePath, "error", err)
		return InstalledApp{}, false
	}

	name := info.DisplayName
	if name == "" {
		name = info.Name
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(bundlePath), bundleExt)
	}

	id := info.Identifier
	if id == "" {
		id = bundlePath
	}

	return InstalledApp{
		ID:              id,
		Name:            name,
		BundleID:        info.Identifier,
		Path:            bundlePath,
		Version:         info.ShortVersion,
		Build:           info.Version,
		FeedURL:         info.FeedURL,
		SystemManaged:   isSystemManaged(bundlePath, info.Identifier),
		AppStoreManaged: s.hasReceipt(bundlePath),
	}, true
}

func isSystemManaged(bundlePath, bundleID string) bool {
	for _, prefix := range systemPathPrefixes {
		if strings.HasPrefix(bundlePath, prefix) {
			return true
		}
	}
	return bundleID != "" && strings.HasPrefix(bundleID, systemBundlePrefix)
}

func hasAppStoreReceipt(bundlePath string) bool {
	receipt := filepath.Join(bundlePath, "Contents", "_MASReceipt", "receipt")
	_, err := os.Stat(receipt)
	return err == nil
}

// Package catalog loads the external JSON document describing known
// applications and their latest versions.
package catalog

import (
	"errors"
	"net/url"
	"strings"
)

// Entry describes one known application in the catalog.
type Entry struct {
	Name             string `json:"name"`
	BundleIdentifier string `json:"bundleIdentifier,omitempty"`
	LatestVersion    string `json:"latestVersion"`
	DownloadURL      string `json:"downloadURL"`
	Notes            string `json:"notes,omitempty"`
}

// Catalog is the decoded catalog document. Immutable per load.
type Catalog struct {
	LastUpdated string  `json:"lastUpdated,omitempty"`
	Apps        []Entry `json:"apps"`
}

var (
	// ErrInvalidSource means the configured catalog URL is empty or unparseable.
	ErrInvalidSource = errors.New("catalog source is invalid")
	// ErrMissingSample means the built-in sample catalog could not be located.
	ErrMissingSample = errors.New("built-in sample catalog is missing")
	// ErrDecodeFailed means the catalog bytes do not match the expected shape.
	ErrDecodeFailed = errors.New("catalog could not be decoded")
)

// Source identifies where the catalog document comes from: the embedded
// sample, a local file, or a remote URL.
type Source struct {
	UseSample bool
	URL       *url.URL
}

// SourceFromConfig validates the configured source. A non-sample source
// requires a usable URL; bare paths are treated as local files.
func SourceFromConfig(useSample bool, rawURL string) (Source, error) {
	if useSample {
		return Source{UseSample: true}, nil
	}

	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Source{}, ErrInvalidSource
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Source{}, ErrInvalidSource
	}

	switch u.Scheme {
	case "", "file", "http", "https":
		return Source{URL: u}, nil
	default:
		return Source{}, ErrInvalidSource
	}
}

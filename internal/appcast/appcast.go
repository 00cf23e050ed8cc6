// Package appcast parses vendor-hosted Sparkle-style XML feeds into release
// candidates. Feeds are third-party and best-effort: malformed documents
// degrade to whatever candidates were collected, never to an error.
package appcast

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/patchpilot/patchpilot/internal/appver"
)

const sparkleNS = "http://www.andymatuchak.org/xml-namespaces/sparkle"

// Candidate is one release item extracted from a feed.
type Candidate struct {
	Version      string
	ShortVersion string
	DownloadURL  string
	Notes        string
}

// DisplayVersion prefers the human-readable short version.
func (c Candidate) DisplayVersion() string {
	if c.ShortVersion != "" {
		return c.ShortVersion
	}
	return c.Version
}

// isSparkle matches an element or attribute in the sparkle namespace. Feeds
// that never declare the namespace leave the raw prefix in place, so both
// forms are accepted.
func isSparkle(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == sparkleNS || name.Space == "sparkle")
}

// Parse folds a state machine over the XML token stream: track whether we are
// inside an item element, accumulate version/short-version/download/notes,
// and emit one candidate per item that carried any version information.
func Parse(r io.Reader) []Candidate {
	dec := xml.NewDecoder(r)

	var (
		items        []Candidate
		inItem       bool
		version      string
		shortVersion string
		downloadURL  string
		notes        string
		text         strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			// EOF or malformed markup: return what was collected so far
			return items
		}

		switch t := tok.(type) {
		case xml.StartElement:
			text.Reset()

			if t.Name.Local == "item" {
				inItem = true
				version, shortVersion, downloadURL, notes = "", "", "", ""
				continue
			}
			if !inItem {
				continue
			}

			if t.Name.Local == "enclosure" {
				for _, attr := range t.Attr {
					switch {
					case attr.Name.Local == "url" && attr.Name.Space == "":
						downloadURL = attr.Value
					case isSparkle(attr.Name, "version"):
						version = attr.Value
					case attr.Name.Local == "version" && attr.Name.Space == "":
						if version == "" {
							version = attr.Value
						}
					case isSparkle(attr.Name, "shortVersionString"):
						shortVersion = attr.Value
					}
				}
			}

		case xml.CharData:
			if inItem {
				text.Write(t)
			}

		case xml.EndElement:
			if !inItem {
				continue
			}

			trimmed := strings.TrimSpace(text.String())
			switch {
			case isSparkle(t.Name, "version"):
				if trimmed != "" {
					version = trimmed
				}
			case isSparkle(t.Name, "shortVersionString"):
				if trimmed != "" {
					shortVersion = trimmed
				}
			case t.Name.Local == "description" ||
				isSparkle(t.Name, "releaseNotesLink") ||
				isSparkle(t.Name, "releaseNotes"):
				if trimmed != "" {
					notes = trimmed
				}
			case t.Name.Local == "item":
				// Items with no version information at all are dropped
				if version != "" || shortVersion != "" {
					v := version
					if v == "" {
						v = shortVersion
					}
					items = append(items, Candidate{
						Version:      v,
						ShortVersion: shortVersion,
						DownloadURL:  downloadURL,
						Notes:        notes,
					})
				}
				inItem = false
			}
			text.Reset()
		}
	}
}

// SelectLatest scans candidates for the strictly newest comparable version.
// The first candidate wins ties; an empty slice yields no result.
func SelectLatest(items []Candidate) (Candidate, bool) {
	if len(items) == 0 {
		return Candidate{}, false
	}

	best := items[0]
	for _, item := range items[1:] {
		if appver.IsNewer(item.DisplayVersion(), best.DisplayVersion()) {
			best = item
		}
	}
	return best, true
}

// Package appver compares the loosely formatted version strings found in
// application bundles, update catalogs, and vendor feeds. Strings like
// "1.2.3", "v10", or "Build 402" all parse; comparison is tolerant and
// never fails.
package appver

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Version is an ordered sequence of numeric components extracted from a raw
// version string. The original string is retained for display.
type Version struct {
	Original string

	parsed *goversion.Version
}

// Parse extracts every maximal run of decimal digits from s, in order, and
// returns a comparable Version. Returns false if s contains no digits.
func Parse(s string) (*Version, bool) {
	runs := digitRuns(s)
	if len(runs) == 0 {
		return nil, false
	}

	v, err := goversion.NewVersion(strings.Join(runs, "."))
	if err != nil {
		return nil, false
	}

	return &Version{Original: s, parsed: v}, true
}

// Compare returns -1, 0, or 1 if v is older than, equal to, or newer than
// other. Missing components compare as zero, so "1.0" equals "1".
func (v *Version) Compare(other *Version) int {
	return v.parsed.Compare(other.parsed)
}

// IsNewer reports whether available is a strictly newer version than
// installed. If either string has no extractable digits the answer is false;
// an incomparable pair never produces a false "update available".
func IsNewer(available, installed string) bool {
	av, ok := Parse(available)
	if !ok {
		return false
	}
	iv, ok := Parse(installed)
	if !ok {
		return false
	}
	return av.Compare(iv) > 0
}

// digitRuns returns each maximal run of ASCII digits in s.
func digitRuns(s string) []string {
	var runs []string
	start := -1

	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, s[start:])
	}

	return runs
}

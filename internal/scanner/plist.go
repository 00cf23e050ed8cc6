package scanner

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
)

// bundleInfo holds the Info.plist keys the scanner cares about.
type bundleInfo struct {
	DisplayName  string `json:"CFBundleDisplayName"`
	Name         string `json:"CFBundleName"`
	ShortVersion string `json:"CFBundleShortVersionString"`
	Version      string `json:"CFBundleVersion"`
	Identifier   string `json:"CFBundleIdentifier"`
	FeedURL      string `json:"SUFeedURL"`
}

// readInfoPlist reads a bundle's Contents/Info.plist. Uses plutil to convert
// the plist to JSON for parsing, avoiding external Go dependencies for plist
// handling.
func readInfoPlist(bundlePath string) (*bundleInfo, error) {
	plistPath := filepath.Join(bundlePath, "Contents", "Info.plist")

	out, err := exec.Command("plutil", "-convert", "json", "-o", "-", plistPath).Output()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", plistPath, err)
	}

	var info bundleInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", plistPath, err)
	}

	return &info, nil
}

// Package homebrew reports outdated Homebrew formulae and casks by shelling
// out to the brew CLI. It is a side channel next to the app bundle scan;
// rows here never merge with application rows.
package homebrew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/patchpilot/patchpilot/internal/logging"
)

var log = logging.L("homebrew")

// ErrBrewNotFound means no brew executable exists at any known location.
var ErrBrewNotFound = errors.New("brew executable not found")

// Kind distinguishes formulae from casks.
type Kind string

const (
	KindFormula Kind = "Formula"
	KindCask    Kind = "Cask"
)

// UpdateRow is one outdated Homebrew package.
type UpdateRow struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InstalledVersion string `json:"installedVersion"`
	LatestVersion    string `json:"latestVersion"`
	Kind             Kind   `json:"kind"`
}

// UpgradeCommand returns the shell command that would upgrade this package.
func (r UpdateRow) UpgradeCommand() string {
	if r.Kind == KindCask {
		return fmt.Sprintf("brew upgrade --cask %s", r.Name)
	}
	return fmt.Sprintf("brew upgrade %s", r.Name)
}

// brew outdated --json=v2 document shape
type outdatedReport struct {
	Formulae []outdatedPackage `json:"formulae"`
	Casks    []outdatedPackage `json:"casks"`
}

type outdatedPackage struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// Service queries brew for outdated packages. The locate and run hooks exist
// for tests; zero-value fields fall back to the real executable lookup.
type Service struct {
	locate func() (string, error)
	run    func(ctx context.Context, brewPath string, args ...string) ([]byte, error)
}

// NewService returns a Service backed by the local brew installation.
func NewService() *Service {
	return &Service{locate: locateBrew, run: runBrew}
}

// FetchOutdated runs `brew outdated --json=v2` and returns one row per
// outdated package, formulae first within a case-insensitive name sort.
// A document missing either top-level array fails outright.
func (s *Service) FetchOutdated(ctx context.Context) ([]UpdateRow, error) {
	brewPath, err := s.locate()
	if err != nil {
		return nil, err
	}

	out, err := s.run(ctx, brewPath, "outdated", "--json=v2")
	if err != nil {
		return nil, fmt.Errorf("brew outdated: %w", err)
	}

	var report outdatedReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decode brew report: %w", err)
	}
	if report.Formulae == nil || report.Casks == nil {
		return nil, errors.New("decode brew report: missing formulae or casks array")
	}

	rows := make([]UpdateRow, 0, len(report.Formulae)+len(report.Casks))
	for _, pkg := range report.Formulae {
		rows = append(rows, packageRow(pkg, KindFormula))
	}
	for _, pkg := range report.Casks {
		rows = append(rows, packageRow(pkg, KindCask))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})

	log.Debug("brew outdated", "formulae", len(report.Formulae), "casks", len(report.Casks))
	return rows, nil
}

func packageRow(pkg outdatedPackage, kind Kind) UpdateRow {
	prefix := "formula"
	if kind == KindCask {
		prefix = "cask"
	}
	return UpdateRow{
		ID:               fmt.Sprintf("%s-%s", prefix, pkg.Name),
		Name:             pkg.Name,
		InstalledVersion: strings.Join(pkg.InstalledVersions, ", "),
		LatestVersion:    pkg.CurrentVersion,
		Kind:             kind,
	}
}

var brewCandidates = []string{
	"/opt/homebrew/bin/brew",
	"/usr/local/bin/brew",
	"/usr/bin/brew",
}

func locateBrew() (string, error) {
	for _, candidate := range brewCandidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", ErrBrewNotFound
}

func runBrew(ctx context.Context, brewPath string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, brewPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %s", brewPath, msg)
		}
		return nil, err
	}
	return out, nil
}

// Package selfupdate checks GitHub releases for a newer build of this tool.
package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patchpilot/patchpilot/internal/appver"
	"github.com/patchpilot/patchpilot/internal/logging"
)

var log = logging.L("selfupdate")

const (
	defaultRepoOwner = "patchpilot"
	defaultRepoName  = "patchpilot"
	defaultTimeout   = 5 * time.Second
)

var (
	ErrNetworkFailure = fmt.Errorf("network request failed")
	ErrRateLimited    = fmt.Errorf("rate limited by GitHub API")
)

type releaseInfo struct {
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

// UpdateInfo is the result of a version check.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
	ReleaseNotes    string
	PublishedAt     time.Time
	IsPrerelease    bool
	CheckedAt       time.Time
}

// Checker queries GitHub for the latest release of this tool.
type Checker struct {
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) { c.httpClient = client }
}

// WithBaseURL overrides the GitHub API base URL.
func WithBaseURL(base string) CheckerOption {
	return func(c *Checker) { c.baseURL = base }
}

// NewChecker creates a checker for the default repository.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		owner:      defaultRepoOwner,
		repo:       defaultRepoName,
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the latest release and compares it to the running version.
// Development builds skip the check and return nil without error.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*UpdateInfo, error) {
	if currentVersion == "" || currentVersion == "dev" || currentVersion == "development" {
		return nil, nil
	}
	if _, ok := appver.Parse(currentVersion); !ok {
		// unparseable running version, likely a local build
		return nil, nil
	}

	release, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	info := &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.TagName,
		UpdateAvailable: appver.IsNewer(release.TagName, currentVersion),
		ReleaseURL:      release.HTMLURL,
		ReleaseNotes:    release.Body,
		PublishedAt:     release.PublishedAt,
		IsPrerelease:    release.Prerelease,
		CheckedAt:       time.Now(),
	}
	log.Debug("release check complete", "latest", info.LatestVersion, "updateAvailable", info.UpdateAvailable)
	return info, nil
}

func (c *Checker) fetchLatestRelease(ctx context.Context) (*releaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "patchpilot-update-checker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}

	var release releaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &release, nil
}

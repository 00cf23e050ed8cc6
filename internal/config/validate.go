package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous zero-values are clamped to safe defaults; other validation errors
// are logged as warnings but do not prevent a check from running.
func (c *Config) Validate() []error {
	var errs []error

	if !c.UseSampleCatalog {
		trimmed := strings.TrimSpace(c.CatalogURL)
		if trimmed == "" {
			errs = append(errs, fmt.Errorf("catalog_url is required when use_sample_catalog is false"))
		} else if u, err := url.Parse(trimmed); err != nil {
			errs = append(errs, fmt.Errorf("catalog_url %q is not a valid URL: %w", c.CatalogURL, err))
		} else if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file" {
			errs = append(errs, fmt.Errorf("catalog_url scheme must be http, https, or file, got %q", u.Scheme))
		}
	}

	// Clamp the check interval so the watch loop never spins
	if c.CheckIntervalHours < 1 {
		errs = append(errs, fmt.Errorf("check_interval_hours %d is below minimum 1, clamping", c.CheckIntervalHours))
		c.CheckIntervalHours = 1
	} else if c.CheckIntervalHours > 168 {
		errs = append(errs, fmt.Errorf("check_interval_hours %d exceeds maximum 168, clamping", c.CheckIntervalHours))
		c.CheckIntervalHours = 168
	}

	if c.FetchTimeoutSeconds < 5 {
		errs = append(errs, fmt.Errorf("fetch_timeout_seconds %d is below minimum 5, clamping", c.FetchTimeoutSeconds))
		c.FetchTimeoutSeconds = 5
	} else if c.FetchTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("fetch_timeout_seconds %d exceeds maximum 300, clamping", c.FetchTimeoutSeconds))
		c.FetchTimeoutSeconds = 300
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	// Log validation errors as warnings
	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}

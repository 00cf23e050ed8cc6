package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob the refresh engine and CLI consume. Values are
// plain data; saving is an explicit call, never a side effect of mutation.
type Config struct {
	UseSampleCatalog    bool   `mapstructure:"use_sample_catalog"`
	CatalogURL          string `mapstructure:"catalog_url"`
	CheckIntervalHours  int    `mapstructure:"check_interval_hours"`
	NotifyOnUpdates     bool   `mapstructure:"notify_on_updates"`
	ExcludeSystemApps   bool   `mapstructure:"exclude_system_apps"`
	ExcludeAppStoreApps bool   `mapstructure:"exclude_app_store_apps"`
	CheckAppcasts       bool   `mapstructure:"check_appcasts"`
	IncludeHomebrew     bool   `mapstructure:"include_homebrew"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
	LogLevel            string `mapstructure:"log_level"`
	LogFormat           string `mapstructure:"log_format"`
}

func Default() *Config {
	return &Config{
		UseSampleCatalog:    true,
		CheckIntervalHours:  6,
		NotifyOnUpdates:     true,
		ExcludeSystemApps:   true,
		ExcludeAppStoreApps: false,
		CheckAppcasts:       true,
		IncludeHomebrew:     false,
		FetchTimeoutSeconds: 30,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// FetchTimeout returns the per-request bound for catalog and feed fetches.
func (c *Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PATCHPILOT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("use_sample_catalog", cfg.UseSampleCatalog)
	viper.Set("catalog_url", cfg.CatalogURL)
	viper.Set("check_interval_hours", cfg.CheckIntervalHours)
	viper.Set("notify_on_updates", cfg.NotifyOnUpdates)
	viper.Set("exclude_system_apps", cfg.ExcludeSystemApps)
	viper.Set("exclude_app_store_apps", cfg.ExcludeAppStoreApps)
	viper.Set("check_appcasts", cfg.CheckAppcasts)
	viper.Set("include_homebrew", cfg.IncludeHomebrew)
	viper.Set("fetch_timeout_seconds", cfg.FetchTimeoutSeconds)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "config.yaml")
		if err := os.MkdirAll(configDir(), 0755); err != nil {
			return err
		}
	}

	return viper.WriteConfigAs(cfgPath)
}

func configDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "/Library/Application Support/PatchPilot"
		}
		return filepath.Join(home, "Library", "Application Support", "PatchPilot")
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "PatchPilot")
	default:
		return "/etc/patchpilot"
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/logging"
)

var (
	version = "0.1.0"
	cfgFile string

	jsonOutput  bool
	updatesOnly bool
	filterQuery string
)

var rootCmd = &cobra.Command{
	Use:   "patchpilot",
	Short: "PatchPilot outdated-software checker",
	Long:  `PatchPilot - scans installed applications and reports available updates from vendor feeds, a catalog, and Homebrew`,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one update check and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check periodically and notify on available updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show host and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if err := config.SaveTo(cfg, cfgFile); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("Default configuration written.")
		return nil
	},
}

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("PatchPilot v%s\n", version)
		if versionCheck {
			return runSelfCheck(cmd)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config directory)")

	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	checkCmd.Flags().BoolVar(&updatesOnly, "updates-only", false, "only show rows with an available update")
	checkCmd.Flags().StringVar(&filterQuery, "filter", "", "filter rows by name or bundle identifier substring")

	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "also check GitHub for a newer release")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	cfg.Validate()
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

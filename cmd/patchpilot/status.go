package main

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
)

func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := host.InfoWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("host info: %w", err)
	}

	fmt.Printf("Host: %s\n", info.Hostname)
	fmt.Printf("OS: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelArch)
	fmt.Printf("Uptime: %s\n", (time.Duration(info.Uptime) * time.Second).String())
	fmt.Println()

	source := "built-in sample"
	if !cfg.UseSampleCatalog {
		source = cfg.CatalogURL
	}
	fmt.Printf("Catalog source: %s\n", source)
	fmt.Printf("Check interval: %dh\n", cfg.CheckIntervalHours)
	fmt.Printf("Appcast feeds: %v\n", cfg.CheckAppcasts)
	fmt.Printf("Homebrew: %v\n", cfg.IncludeHomebrew)
	fmt.Printf("Notifications: %v\n", cfg.NotifyOnUpdates)
	return nil
}

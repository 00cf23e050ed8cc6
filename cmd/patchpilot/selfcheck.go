package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/selfupdate"
)

func runSelfCheck(cmd *cobra.Command) error {
	info, err := selfupdate.NewChecker().Check(cmd.Context(), version)
	if err != nil {
		return fmt.Errorf("release check: %w", err)
	}
	if info == nil {
		fmt.Println("Release check skipped for development builds.")
		return nil
	}
	if info.UpdateAvailable {
		fmt.Printf("A newer release is available: %s (%s)\n", info.LatestVersion, info.ReleaseURL)
		return nil
	}
	fmt.Println("You are running the latest release.")
	return nil
}

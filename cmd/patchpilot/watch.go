package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/engine"
	"github.com/patchpilot/patchpilot/internal/logging"
	"github.com/patchpilot/patchpilot/internal/notify"
)

func runWatch(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	notifier := notify.New()
	log := logging.L("watch")

	interval := time.Duration(cfg.CheckIntervalHours) * time.Hour
	if interval < time.Hour {
		interval = time.Hour
	}

	fmt.Printf("Starting PatchPilot v%s\n", version)
	fmt.Printf("Check interval: %s\n", interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		res, err := eng.Refresh(ctx)
		if err != nil {
			if !errors.Is(err, engine.ErrCheckInProgress) {
				log.Error("check failed", "error", err)
			}
			return
		}
		log.Info("check finished", "updates", res.UpdateCount())
		if cfg.NotifyOnUpdates {
			notifier.UpdatesAvailable(res.UpdateCount())
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			return nil
		}
	}
}

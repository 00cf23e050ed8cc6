package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/engine"
	"github.com/patchpilot/patchpilot/internal/homebrew"
	"github.com/patchpilot/patchpilot/internal/merge"
)

func runCheck(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	res, err := eng.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	rows := merge.FilterRows(res.Rows, filterQuery, updatesOnly)

	if jsonOutput {
		return printJSON(res, rows)
	}
	printText(res, rows)
	return nil
}

type checkReport struct {
	Rows      []merge.Row          `json:"rows"`
	BrewRows  []homebrew.UpdateRow `json:"brewRows,omitempty"`
	CheckedAt string               `json:"checkedAt"`
	Updates   int                  `json:"updateCount"`
	Errors    []string             `json:"errors,omitempty"`
}

func printJSON(res *engine.Result, rows []merge.Row) error {
	report := checkReport{
		Rows:      rows,
		BrewRows:  res.BrewRows,
		CheckedAt: res.CheckedAt.Format(time.RFC3339),
		Updates:   res.UpdateCount(),
	}
	if res.CatalogErr != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("catalog: %v", res.CatalogErr))
	}
	if res.BrewErr != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("homebrew: %v", res.BrewErr))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printText(res *engine.Result, rows []merge.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINSTALLED\tLATEST\tSTATUS\tSOURCE")
	for _, row := range rows {
		source := "-"
		if row.Update != nil {
			source = string(row.Update.Provenance)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.App.Name, row.App.DisplayVersion(), row.LatestVersionText(), row.Status, source)
	}
	w.Flush()

	if len(res.BrewRows) > 0 {
		fmt.Println()
		bw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(bw, "HOMEBREW\tINSTALLED\tLATEST\tKIND\tUPGRADE")
		for _, row := range res.BrewRows {
			fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\n",
				row.Name, row.InstalledVersion, row.LatestVersion, row.Kind, row.UpgradeCommand())
		}
		bw.Flush()
	}

	fmt.Printf("\n%d of %d apps have updates available.\n", res.UpdateCount(), len(res.Rows))
	if res.CatalogErr != nil {
		fmt.Fprintf(os.Stderr, "warning: catalog unavailable: %v\n", res.CatalogErr)
	}
	if res.BrewErr != nil {
		fmt.Fprintf(os.Stderr, "warning: homebrew check failed: %v\n", res.BrewErr)
	}
}

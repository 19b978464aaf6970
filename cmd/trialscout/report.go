// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trialscout/internal/report"
	"github.com/pdiddy/trialscout/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [export-file]",
	Short: "Show or re-export a saved trials report",
	Long: `Report loads an exported trials report (JSON or YAML) and prints it as a
table. Without an argument the newest export in report.output_dir is used.

--status and --query filter the rows shown. --format writes a copy of the
report, with the filter recorded as activeFilter, instead of printing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if path, err = latestExport(cfg.Report.OutputDir); err != nil {
		return err
	}

	e, err := report.LoadExport(path)
	if err != nil {
		return err
	}

	status, _ := cmd.Flags().GetString("status")
	query, _ := cmd.Flags().GetString("query")
	filter := report.Filter{Status: status, Query: query}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		out, err := report.SaveExport(cfg.Report.OutputDir, report.NewExport(&e.TrialsReport, filter, time.Now()), types.ExportFormat(format))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
		return nil
	}

	report.FormatTable(&e.TrialsReport, filter, cmd.OutOrStdout())
	return nil
}

// latestExport returns the most recent trials-report file in dir. Export
// names embed a sortable UTC timestamp.
func latestExport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "trials-report-") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no exported reports in %s", dir)
	}
	slices.Sort(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

func init() {
	reportCmd.Flags().String("status", "", "show only trials with this status")
	reportCmd.Flags().String("query", "", "show only trials mentioning this text")
	reportCmd.Flags().String("format", "", "write a filtered copy as json or yaml instead of printing")

	rootCmd.AddCommand(reportCmd)
}

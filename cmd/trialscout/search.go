// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/report"
	"github.com/pdiddy/trialscout/internal/search"
	"github.com/pdiddy/trialscout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms]",
	Short: "Search ClinicalTrials.gov for studies",
	Long: `Search queries the ClinicalTrials.gov v2 studies endpoint and prints the
normalized records. Positional arguments are joined into query.term.

Use --pages to follow nextPageToken across several pages, or --nct to fetch
a single study by its NCT number.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := search.NewClient(cfg.Search)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if nct, _ := cmd.Flags().GetString("nct"); nct != "" {
		study, err := client.Fetch(ctx, nct)
		if err != nil {
			return err
		}
		return writeStudies(out, []types.StudyInfo{study}, nil, jsonOutput)
	}

	params := searchParamsFromFlags(cmd, args)
	pages, _ := cmd.Flags().GetInt("pages")
	page, err := client.SearchAll(ctx, params, cfg.Search.PageSize, pages)
	if err != nil {
		return err
	}
	if err := writeStudies(out, page.Studies, page.TotalCount, jsonOutput); err != nil {
		return err
	}
	if page.HasMore() && !jsonOutput {
		fmt.Fprintf(out, "More results available (page token %s)\n", page.NextPageToken)
	}
	return nil
}

func searchParamsFromFlags(cmd *cobra.Command, args []string) search.Parameters {
	condition, _ := cmd.Flags().GetString("condition")
	term, _ := cmd.Flags().GetString("term")
	if term == "" && len(args) > 0 {
		term = strings.Join(args, " ")
	}
	intervention, _ := cmd.Flags().GetString("intervention")
	location, _ := cmd.Flags().GetString("location")
	status, _ := cmd.Flags().GetStringSlice("status")
	sort, _ := cmd.Flags().GetStringSlice("sort")

	params := search.Parameters{search.KeyCountTotal: true}
	set := func(key, value string) {
		if value != "" {
			params[key] = value
		}
	}
	set(search.KeyCondition, condition)
	set("query.term", term)
	set("query.intr", intervention)
	set("query.locn", location)
	if len(status) > 0 {
		upper := make([]string, len(status))
		for i, s := range status {
			upper[i] = strings.ToUpper(strings.TrimSpace(s))
		}
		params[search.KeyStatus] = upper
	}
	if len(sort) > 0 {
		params[search.KeySort] = sort
	}
	return params
}

func writeStudies(w io.Writer, studies []types.StudyInfo, total *int, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(studies)
	}
	if len(studies) == 0 {
		fmt.Fprintln(w, "No studies found.")
		return nil
	}
	report.FormatStudies(studies, w)
	if total != nil {
		fmt.Fprintf(w, "\n%d studies shown, %d match in total\n", len(studies), *total)
	} else {
		fmt.Fprintf(w, "\n%d studies shown\n", len(studies))
	}
	return nil
}

func init() {
	searchCmd.Flags().String("condition", "", "condition or disease (query.cond)")
	searchCmd.Flags().String("term", "", "other terms (query.term)")
	searchCmd.Flags().String("intervention", "", "intervention or treatment (query.intr)")
	searchCmd.Flags().String("location", "", "location (query.locn)")
	searchCmd.Flags().StringSlice("status", nil, "overall statuses, e.g. RECRUITING,NOT_YET_RECRUITING")
	searchCmd.Flags().StringSlice("sort", nil, "sort fields, e.g. StartDate:desc")
	searchCmd.Flags().Int("page-size", 0, "studies per page (default from config)")
	searchCmd.Flags().Int("pages", 1, "maximum number of pages to fetch")
	searchCmd.Flags().String("nct", "", "fetch a single study by NCT number")
	searchCmd.Flags().Bool("json", false, "output studies as JSON")

	viper.BindPFlag("search.page_size", searchCmd.Flags().Lookup("page-size"))

	rootCmd.AddCommand(searchCmd)
}

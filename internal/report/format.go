// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/trialscout/pkg/types"
)

// Filter is the client-side view filter applied when presenting a report.
type Filter struct {
	// Status keeps trials whose status matches, case-insensitively.
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
	// Query keeps trials whose title, conditions, interventions or summary
	// contain the text, case-insensitively.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

// IsZero reports whether the filter keeps everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Status) == "" && strings.TrimSpace(f.Query) == ""
}

// Apply returns the trials that pass the filter, preserving order.
func (f Filter) Apply(trials []types.StudyInfo) []types.StudyInfo {
	status := strings.TrimSpace(f.Status)
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]types.StudyInfo, 0, len(trials))
	for _, t := range trials {
		if status != "" && !strings.EqualFold(t.Status, status) {
			continue
		}
		if query != "" && !matchesQuery(t, query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesQuery(t types.StudyInfo, q string) bool {
	for _, field := range []string{t.StudyTitle, t.Conditions, t.Interventions, t.BriefSummary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FormatTable writes the report as a human-readable table to w.
func FormatTable(r *types.TrialsReport, filter Filter, w io.Writer) {
	fmt.Fprintf(w, "Trials report for %s (%s)\n", r.UserContext.Condition, r.UserContext.Purpose)
	fmt.Fprintf(w, "Generated %s by %s\n\n", r.Timestamp.Format("2006-01-02 15:04 MST"), r.Metadata.GeneratedBy)

	shown := filter.Apply(r.Trials)
	if len(shown) == 0 {
		fmt.Fprintln(w, "No trials to show.")
		return
	}

	FormatStudies(shown, w)

	fmt.Fprintf(w, "\n%d of %d trials shown", len(shown), len(r.Trials))
	if r.Metadata.TotalTrialsFound > len(r.Trials) {
		fmt.Fprintf(w, " (%d found in total)", r.Metadata.TotalTrialsFound)
	}
	fmt.Fprintln(w)
	if r.Metadata.FinalNotes != "" {
		fmt.Fprintf(w, "Notes: %s\n", r.Metadata.FinalNotes)
	}
}

// FormatStudies writes one row per study.
func FormatStudies(studies []types.StudyInfo, w io.Writer) {
	fmt.Fprintf(w, "%-4s  %-11s  %-55s  %-22s  %s\n",
		"Rank", "NCT", "Title", "Status", "Start")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, s := range studies {
		fmt.Fprintf(w, "%-4d  %-11s  %-55s  %-22s  %s\n",
			i+1, s.NCTNumber, truncate(s.StudyTitle, 55), truncate(s.Status, 22), s.StartDate)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

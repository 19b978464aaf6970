// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/trialscout/pkg/types"
)

// dateLayouts are the start-date forms the registry emits, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	time.RFC3339,
	"2006",
	"January 2, 2006",
	"January 2006",
}

// dedupe keeps the first occurrence of each NCT number in input order.
// Later duplicates are dropped, not merged. It never returns nil.
func dedupe(trials []types.StudyInfo) []types.StudyInfo {
	seen := make(map[string]struct{}, len(trials))
	out := make([]types.StudyInfo, 0, len(trials))
	for _, t := range trials {
		if _, ok := seen[t.NCTNumber]; ok {
			continue
		}
		seen[t.NCTNumber] = struct{}{}
		out = append(out, t)
	}
	return out
}

// rankByStartDate sorts trials newest start date first. Unparseable or
// empty dates sort last; ties keep their input order.
func rankByStartDate(trials []types.StudyInfo) {
	keys := make(map[string]int64, len(trials))
	for _, t := range trials {
		keys[t.NCTNumber] = startKey(t.StartDate)
	}
	slices.SortStableFunc(trials, func(a, b types.StudyInfo) int {
		ka, kb := keys[a.NCTNumber], keys[b.NCTNumber]
		switch {
		case ka > kb:
			return -1
		case ka < kb:
			return 1
		default:
			return 0
		}
	})
}

// startKey converts a start date to a sortable instant; failures map to
// the smallest key.
func startKey(s string) int64 {
	if t, ok := parseDate(s); ok {
		return t.Unix()
	}
	return math.MinInt64
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/trialscout/pkg/types"
)

func TestFilterApply(t *testing.T) {
	a := study("NCT1", "Inhaled steroid trial", "")
	a.Status = "RECRUITING"
	b := study("NCT2", "Diet study", "")
	b.Status = "COMPLETED"
	b.Conditions = "Asthma, Obesity"
	c := study("NCT3", "Exercise", "")
	c.Status = "RECRUITING"
	c.Interventions = "Treadmill (BEHAVIORAL)"
	trials := []types.StudyInfo{a, b, c}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero keeps all", Filter{}, []string{"NCT1", "NCT2", "NCT3"}},
		{"status case-insensitive", Filter{Status: "recruiting"}, []string{"NCT1", "NCT3"}},
		{"query on title", Filter{Query: "STEROID"}, []string{"NCT1"}},
		{"query on conditions", Filter{Query: "obesity"}, []string{"NCT2"}},
		{"query on interventions", Filter{Query: "treadmill"}, []string{"NCT3"}},
		{"both", Filter{Status: "RECRUITING", Query: "diet"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nctIDs(tt.filter.Apply(trials)))
		})
	}
}

func TestFilterIsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.True(t, Filter{Status: "  "}.IsZero())
	assert.False(t, Filter{Query: "x"}.IsZero())
}

func TestFormatTable(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	FormatTable(r, Filter{}, &buf)
	out := buf.String()

	assert.Contains(t, out, "Trials report for asthma (Unknown Purpose)")
	assert.Contains(t, out, "NCT1")
	assert.Contains(t, out, "NCT2")
	assert.Contains(t, out, "2 of 2 trials shown")
	assert.Contains(t, out, "Notes: bring inhaler list")
	assert.Less(t, strings.Index(out, "NCT1"), strings.Index(out, "NCT2"), "newest first")
}

func TestFormatTable_FilteredAndTruncated(t *testing.T) {
	h := newTestHandler()
	var trials []types.StudyInfo
	for _, id := range []string{"NCT01", "NCT02", "NCT03", "NCT04", "NCT05", "NCT06", "NCT07", "NCT08", "NCT09", "NCT10", "NCT11"} {
		s := study(id, strings.Repeat("Long title ", 10), "2020-01-01")
		s.Status = "RECRUITING"
		trials = append(trials, s)
	}
	trials[0].Status = "COMPLETED"
	h.UpdateLatestTrials(trials, nil)
	r := h.GenerateReport(nil, types.GeneratedByAssistant, true, "")

	var buf bytes.Buffer
	FormatTable(r, Filter{Status: "RECRUITING"}, &buf)
	out := buf.String()

	assert.Contains(t, out, "9 of 10 trials shown (11 found in total)")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "Notes:")
}

func TestFormatTable_NothingToShow(t *testing.T) {
	r := newTestHandler().GenerateReport(nil, types.GeneratedByUser, true, "")
	var buf bytes.Buffer
	FormatTable(r, Filter{}, &buf)
	assert.Contains(t, buf.String(), "No trials to show.")
}

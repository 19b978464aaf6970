// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/trialscout/pkg/types"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
		want   string
	}{
		{"2023-04-15", true, "2023-04-15"},
		{"2023-04", true, "2023-04-01"},
		{"2023", true, "2023-01-01"},
		{"2023-04-15T10:00:00Z", true, "2023-04-15"},
		{"April 15, 2023", true, "2023-04-15"},
		{"April 2023", true, "2023-04-01"},
		{" 2023-04-15 ", true, "2023-04-15"},
		{"", false, ""},
		{"soon", false, ""},
		{"2023-13-01", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	in := []types.StudyInfo{
		study("NCT1", "first", ""),
		study("NCT2", "x", ""),
		study("NCT1", "second", ""),
		study("NCT3", "y", ""),
		study("NCT2", "z", ""),
	}
	got := dedupe(in)
	assert.Equal(t, []string{"NCT1", "NCT2", "NCT3"}, nctIDs(got))
	assert.Equal(t, "first", got[0].StudyTitle)
	assert.Equal(t, "x", got[1].StudyTitle)

	assert.NotNil(t, dedupe(nil))
	assert.Empty(t, dedupe(nil))
}

func TestRankByStartDate(t *testing.T) {
	trials := []types.StudyInfo{
		study("NCT-empty", "", ""),
		study("NCT-2019", "", "2019-05-01"),
		study("NCT-bad", "", "not a date"),
		study("NCT-2024", "", "2024-01"),
		study("NCT-2019b", "", "2019-05-01"),
		study("NCT-2021", "", "2021"),
	}
	rankByStartDate(trials)

	assert.Equal(t, []string{
		"NCT-2024",
		"NCT-2021",
		"NCT-2019",
		"NCT-2019b", // tie keeps input order
		"NCT-empty", // unparseable sinks, input order kept
		"NCT-bad",
	}, nctIDs(trials))
}

func TestRankByStartDate_MixedPrecision(t *testing.T) {
	trials := []types.StudyInfo{
		study("A", "", "2022-03"),
		study("B", "", "2022-03-15"),
		study("C", "", "2022-02-28"),
	}
	rankByStartDate(trials)
	assert.Equal(t, []string{"B", "A", "C"}, nctIDs(trials))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscout/pkg/types"
)

const fullStudyJSON = `{
  "protocolSection": {
    "identificationModule": {"nctId": "NCT01234567", "briefTitle": "Inhaled Therapy for Asthma", "officialTitle": "A Randomized Trial"},
    "statusModule": {"overallStatus": "RECRUITING", "startDateStruct": {"date": "2023-04-01"}, "completionDateStruct": {"date": "2026-12"}},
    "sponsorCollaboratorsModule": {"leadSponsor": {"name": "Acme Health", "class": "INDUSTRY"}},
    "designModule": {"studyType": "INTERVENTIONAL", "phases": ["PHASE2", "PHASE3"]},
    "descriptionModule": {"briefSummary": "Tests a new inhaler."},
    "conditionsModule": {"conditions": ["Asthma", "Allergic Rhinitis"]},
    "armsInterventionsModule": {"interventions": [
      {"type": "DRUG", "name": "Budesonide"},
      {"type": "", "name": "Placebo"},
      {"type": "DEVICE", "name": ""}
    ]},
    "eligibilityModule": {
      "eligibilityCriteria": "Adults with asthma",
      "healthyVolunteers": true,
      "sex": "ALL",
      "minimumAge": "18 Years",
      "maximumAge": "65 Years",
      "stdAges": ["ADULT", "OLDER_ADULT"]
    },
    "contactsLocationsModule": {"locations": [
      {"facility": "General Hospital", "city": "Boston", "country": "United States"},
      {"city": "Lyon", "country": "France"},
      {},
      {"facility": "Clinic C", "city": "Oslo", "country": "Norway"},
      {"facility": "Clinic D", "city": "Rome", "country": "Italy"}
    ]}
  }
}`

func TestNormalizeJSON_FullRecord(t *testing.T) {
	got, err := NormalizeJSON([]byte(fullStudyJSON))
	require.NoError(t, err)

	want := types.StudyInfo{
		NCTNumber:      "NCT01234567",
		StudyTitle:     "Inhaled Therapy for Asthma",
		Status:         "RECRUITING",
		Sponsor:        "Acme Health",
		StudyType:      "INTERVENTIONAL",
		BriefSummary:   "Tests a new inhaler.",
		Conditions:     "Asthma, Allergic Rhinitis",
		Interventions:  "Budesonide (DRUG); Placebo",
		Phases:         "PHASE2, PHASE3",
		Locations:      "General Hospital, Boston, United States; Lyon, France; Clinic C, Oslo, Norway",
		StartDate:      "2023-04-01",
		CompletionDate: "2026-12",
		EligibilityModule: types.EligibilityModule{
			EligibilityCriteria: "Adults with asthma",
			Sex:                 "ALL",
			MinimumAge:          "18 Years",
			MaximumAge:          "65 Years",
			StdAges:             []string{"ADULT", "OLDER_ADULT"},
			HealthyVolunteers:   true,
		},
	}
	assert.Equal(t, want, got)
}

func TestNormalize_MissingModules(t *testing.T) {
	empty := types.StudyInfo{EligibilityModule: types.EligibilityModule{StdAges: []string{}}}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"empty protocol section", `{"protocolSection": {}}`},
		{"null protocol section", `{"protocolSection": null}`},
		{"empty modules", `{"protocolSection": {
			"identificationModule": {}, "statusModule": {}, "sponsorCollaboratorsModule": {},
			"designModule": {}, "descriptionModule": {}, "conditionsModule": {},
			"armsInterventionsModule": {}, "eligibilityModule": {}, "contactsLocationsModule": {}
		}}`},
		{"null leaves", `{"protocolSection": {
			"statusModule": {"startDateStruct": null, "completionDateStruct": null},
			"sponsorCollaboratorsModule": {"leadSponsor": null},
			"conditionsModule": {"conditions": null},
			"eligibilityModule": {"healthyVolunteers": null, "stdAges": null}
		}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeJSON([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, empty, got)
		})
	}
}

func TestNormalize_ZeroValueHasNoNilLeaves(t *testing.T) {
	got := Normalize(RawStudy{})
	require.NotNil(t, got.EligibilityModule.StdAges)
	assert.Empty(t, got.EligibilityModule.StdAges)
	assert.False(t, got.EligibilityModule.HealthyVolunteers)

	// Every string field is present (possibly empty).
	v := reflect.ValueOf(got)
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).Kind() == reflect.String {
			assert.Equal(t, "", v.Field(i).String(), v.Type().Field(i).Name)
		}
	}
}

func TestNormalize_OfficialTitleFallback(t *testing.T) {
	got, err := NormalizeJSON([]byte(`{"protocolSection": {"identificationModule": {"nctId": "NCT9", "officialTitle": "Official"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "Official", got.StudyTitle)
}

func TestNormalize_Deterministic(t *testing.T) {
	a, err := NormalizeJSON([]byte(fullStudyJSON))
	require.NoError(t, err)
	b, err := NormalizeJSON([]byte(fullStudyJSON))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeJSON_Malformed(t *testing.T) {
	_, err := NormalizeJSON([]byte(`{"protocolSection":`))
	assert.Error(t, err)
}

func TestFormatInterventions(t *testing.T) {
	tests := []struct {
		name  string
		items []rawIntervention
		want  string
	}{
		{"none", nil, ""},
		{"typed", []rawIntervention{{Type: "DRUG", Name: "A"}}, "A (DRUG)"},
		{"mixed", []rawIntervention{{Type: "DRUG", Name: "A"}, {Name: "B"}, {Type: "BEHAVIORAL", Name: "C"}}, "A (DRUG); B; C (BEHAVIORAL)"},
		{"nameless skipped", []rawIntervention{{Type: "DEVICE"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatInterventions(tt.items))
		})
	}
}

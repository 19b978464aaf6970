// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/trialscout/pkg/types"
)

// maxLocations bounds how many sites are summarized into StudyInfo.Locations.
const maxLocations = 3

// Normalize maps one raw registry record to a StudyInfo. It is total: any
// missing module or leaf yields "", false, or an empty list.
func Normalize(raw RawStudy) types.StudyInfo {
	ps := raw.ProtocolSection
	if ps == nil {
		ps = &rawProtocolSection{}
	}

	info := types.StudyInfo{
		EligibilityModule: types.EligibilityModule{StdAges: []string{}},
	}

	if m := ps.IdentificationModule; m != nil {
		info.NCTNumber = m.NCTID
		info.StudyTitle = m.BriefTitle
		if info.StudyTitle == "" {
			info.StudyTitle = m.OfficialTitle
		}
	}
	if m := ps.StatusModule; m != nil {
		info.Status = m.OverallStatus
		if m.StartDateStruct != nil {
			info.StartDate = m.StartDateStruct.Date
		}
		if m.CompletionDateStruct != nil {
			info.CompletionDate = m.CompletionDateStruct.Date
		}
	}
	if m := ps.SponsorCollaboratorsModule; m != nil && m.LeadSponsor != nil {
		info.Sponsor = m.LeadSponsor.Name
	}
	if m := ps.DesignModule; m != nil {
		info.StudyType = m.StudyType
		info.Phases = strings.Join(nonEmpty(m.Phases), ", ")
	}
	if m := ps.DescriptionModule; m != nil {
		info.BriefSummary = m.BriefSummary
	}
	if m := ps.ConditionsModule; m != nil {
		info.Conditions = strings.Join(nonEmpty(m.Conditions), ", ")
	}
	if m := ps.ArmsInterventionsModule; m != nil {
		info.Interventions = formatInterventions(m.Interventions)
	}
	if m := ps.ContactsLocationsModule; m != nil {
		info.Locations = formatLocations(m.Locations)
	}
	if m := ps.EligibilityModule; m != nil {
		info.EligibilityModule = types.EligibilityModule{
			EligibilityCriteria: m.EligibilityCriteria,
			Sex:                 m.Sex,
			MinimumAge:          m.MinimumAge,
			MaximumAge:          m.MaximumAge,
			StdAges:             nonEmpty(m.StdAges),
			HealthyVolunteers:   m.HealthyVolunteers != nil && *m.HealthyVolunteers,
		}
	}
	return info
}

// NormalizeJSON decodes a single raw study element and normalizes it.
func NormalizeJSON(data []byte) (types.StudyInfo, error) {
	var raw RawStudy
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.StudyInfo{}, fmt.Errorf("decoding study: %w", err)
	}
	return Normalize(raw), nil
}

// formatInterventions renders "Name (TYPE)" entries joined with "; ".
func formatInterventions(items []rawIntervention) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Name != "" && it.Type != "":
			parts = append(parts, fmt.Sprintf("%s (%s)", it.Name, it.Type))
		case it.Name != "":
			parts = append(parts, it.Name)
		}
	}
	return strings.Join(parts, "; ")
}

func formatLocations(locs []rawLocation) string {
	var parts []string
	for _, loc := range locs {
		if len(parts) == maxLocations {
			break
		}
		site := strings.Join(nonEmpty([]string{loc.Facility, loc.City, loc.Country}), ", ")
		if site != "" {
			parts = append(parts, site)
		}
	}
	return strings.Join(parts, "; ")
}

// nonEmpty drops blank entries and never returns nil.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RawStudy is one element of the registry's "studies" array. Every module
// is optional; the registry omits them inconsistently.
type RawStudy struct {
	ProtocolSection *rawProtocolSection `json:"protocolSection,omitempty"`
}

type rawProtocolSection struct {
	IdentificationModule       *rawIdentification       `json:"identificationModule,omitempty"`
	StatusModule               *rawStatus               `json:"statusModule,omitempty"`
	SponsorCollaboratorsModule *rawSponsorCollaborators `json:"sponsorCollaboratorsModule,omitempty"`
	DesignModule               *rawDesign               `json:"designModule,omitempty"`
	DescriptionModule          *rawDescription          `json:"descriptionModule,omitempty"`
	ConditionsModule           *rawConditions           `json:"conditionsModule,omitempty"`
	ArmsInterventionsModule    *rawArmsInterventions    `json:"armsInterventionsModule,omitempty"`
	EligibilityModule          *rawEligibility          `json:"eligibilityModule,omitempty"`
	ContactsLocationsModule    *rawContactsLocations    `json:"contactsLocationsModule,omitempty"`
}

type rawIdentification struct {
	NCTID         string `json:"nctId"`
	BriefTitle    string `json:"briefTitle"`
	OfficialTitle string `json:"officialTitle"`
}

type rawDateStruct struct {
	Date string `json:"date"`
	Type string `json:"type"`
}

type rawStatus struct {
	OverallStatus        string         `json:"overallStatus"`
	StartDateStruct      *rawDateStruct `json:"startDateStruct,omitempty"`
	CompletionDateStruct *rawDateStruct `json:"completionDateStruct,omitempty"`
}

type rawSponsor struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type rawSponsorCollaborators struct {
	LeadSponsor *rawSponsor `json:"leadSponsor,omitempty"`
}

type rawDesign struct {
	StudyType string   `json:"studyType"`
	Phases    []string `json:"phases"`
}

type rawDescription struct {
	BriefSummary string `json:"briefSummary"`
}

type rawConditions struct {
	Conditions []string `json:"conditions"`
}

type rawIntervention struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type rawArmsInterventions struct {
	Interventions []rawIntervention `json:"interventions"`
}

type rawEligibility struct {
	EligibilityCriteria string   `json:"eligibilityCriteria"`
	HealthyVolunteers   *bool    `json:"healthyVolunteers,omitempty"`
	Sex                 string   `json:"sex"`
	MinimumAge          string   `json:"minimumAge"`
	MaximumAge          string   `json:"maximumAge"`
	StdAges             []string `json:"stdAges"`
}

type rawLocation struct {
	Facility string `json:"facility"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

type rawContactsLocations struct {
	Locations []rawLocation `json:"locations"`
}

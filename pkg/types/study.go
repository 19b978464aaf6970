// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trialscout pipeline:
// normalized trial records, the final trials report, and configuration.
//
// JSON field names on these types are the export contract consumed by the
// presentation layer; do not rename them.
package types

// EligibilityModule holds the eligibility section of a trial record.
type EligibilityModule struct {
	// EligibilityCriteria is the free-text inclusion/exclusion criteria.
	EligibilityCriteria string `json:"eligibilityCriteria" yaml:"eligibilityCriteria"`

	// Sex is the accepted sex as reported by the registry (e.g. "ALL", "FEMALE").
	Sex string `json:"sex" yaml:"sex"`

	// MinimumAge and MaximumAge are free-form age strings (e.g. "18 Years").
	MinimumAge string `json:"minimumAge" yaml:"minimumAge"`
	MaximumAge string `json:"maximumAge" yaml:"maximumAge"`

	// StdAges lists standardized age brackets (CHILD, ADULT, OLDER_ADULT).
	// Never nil so it encodes as [].
	StdAges []string `json:"stdAges" yaml:"stdAges"`

	// HealthyVolunteers reports whether healthy volunteers are accepted.
	HealthyVolunteers bool `json:"healthyVolunteers" yaml:"healthyVolunteers"`
}

// StudyInfo is a normalized clinical trial record. NCTNumber identifies the
// trial within a report; every other string may be empty but is never absent.
type StudyInfo struct {
	NCTNumber      string `json:"nctNumber" yaml:"nctNumber"`
	StudyTitle     string `json:"studyTitle" yaml:"studyTitle"`
	Status         string `json:"status" yaml:"status"`
	Sponsor        string `json:"sponsor" yaml:"sponsor"`
	StudyType      string `json:"studyType" yaml:"studyType"`
	BriefSummary   string `json:"briefSummary" yaml:"briefSummary"`
	Conditions     string `json:"conditions" yaml:"conditions"`
	Interventions  string `json:"interventions" yaml:"interventions"`
	Phases         string `json:"phases" yaml:"phases"`
	Locations      string `json:"locations" yaml:"locations"`
	StartDate      string `json:"startDate" yaml:"startDate"`
	CompletionDate string `json:"completionDate" yaml:"completionDate"`

	EligibilityModule EligibilityModule `json:"eligibilityModule" yaml:"eligibilityModule"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GeneratedBy records who triggered report generation.
type GeneratedBy string

const (
	GeneratedByAssistant GeneratedBy = "assistant"
	GeneratedByUser      GeneratedBy = "user"
)

// Demographics holds the optional demographic facts the user disclosed.
// Fields are omitted when the user never mentioned them.
type Demographics struct {
	Age      string `json:"age,omitempty" yaml:"age,omitempty"`
	Sex      string `json:"sex,omitempty" yaml:"sex,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// ClinicalContext holds the optional clinical facts the user disclosed.
type ClinicalContext struct {
	DiagnosisStatus   string `json:"diagnosisStatus,omitempty" yaml:"diagnosisStatus,omitempty"`
	CurrentTreatments string `json:"currentTreatments,omitempty" yaml:"currentTreatments,omitempty"`
	TreatmentHistory  string `json:"treatmentHistory,omitempty" yaml:"treatmentHistory,omitempty"`
}

// UserContext summarizes the conversation's memory at generation time.
type UserContext struct {
	Condition       string           `json:"condition" yaml:"condition"`
	Purpose         string           `json:"purpose" yaml:"purpose"`
	Demographics    *Demographics    `json:"demographics,omitempty" yaml:"demographics,omitempty"`
	ClinicalContext *ClinicalContext `json:"clinicalContext,omitempty" yaml:"clinicalContext,omitempty"`
}

// SearchCriteria echoes the filters of the last search into the report.
type SearchCriteria struct {
	Condition string `json:"condition" yaml:"condition"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	SortBy    string `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`
}

// ReportMetadata is the audit trail of a report.
type ReportMetadata struct {
	// TotalTrialsFound is the unique trial count before truncation.
	TotalTrialsFound     int            `json:"totalTrialsFound" yaml:"totalTrialsFound"`
	GeneratedAt          time.Time      `json:"generatedAt" yaml:"generatedAt"`
	SearchParameters     map[string]any `json:"searchParameters" yaml:"searchParameters"`
	GeneratedBy          GeneratedBy    `json:"generatedBy" yaml:"generatedBy"`
	ConversationComplete bool           `json:"conversationComplete" yaml:"conversationComplete"`
	FinalNotes           string         `json:"finalNotes,omitempty" yaml:"finalNotes,omitempty"`
}

// TrialsReport is the terminal artifact of a conversation. Trials holds at
// most MaxReportTrials entries with unique NCT numbers, newest start first.
type TrialsReport struct {
	Timestamp      time.Time      `json:"timestamp" yaml:"timestamp"`
	UserContext    UserContext    `json:"userContext" yaml:"userContext"`
	SearchCriteria SearchCriteria `json:"searchCriteria" yaml:"searchCriteria"`
	Trials         []StudyInfo    `json:"trials" yaml:"trials"`
	Metadata       ReportMetadata `json:"metadata" yaml:"metadata"`
}

// MaxReportTrials bounds TrialsReport.Trials.
const MaxReportTrials = 10

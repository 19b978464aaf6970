// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report turns the latest search results and the user's disclosed
// facts into a bounded, deduplicated, ranked TrialsReport, and renders or
// exports that report.
//
// A Handler belongs to exactly one conversation session. It holds the
// latest-trials cache and the current report; both are replaced wholesale,
// never merged.
package report

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/trialscout/internal/memory"
	"github.com/pdiddy/trialscout/internal/search"
	"github.com/pdiddy/trialscout/pkg/types"
)

// ErrNoTrials is available to callers that refuse to generate a report
// before any search results were recorded. The Handler itself never
// returns it.
var ErrNoTrials = errors.New("no trials recorded for this conversation")

// Placeholders used when the user never stated a condition or purpose.
const (
	UnknownCondition = "Unknown Condition"
	UnknownPurpose   = "Unknown Purpose"
)

// State is the Handler's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateHasLatestTrials
	StateHasReport
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHasLatestTrials:
		return "has_latest_trials"
	case StateHasReport:
		return "has_report"
	default:
		return "unknown"
	}
}

// Handler is the report state machine of one session.
type Handler struct {
	mu       sync.Mutex
	trials   []types.StudyInfo
	params   search.Parameters
	recorded bool
	current  *types.TrialsReport

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler returns an idle Handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State reports the current lifecycle state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.current != nil:
		return StateHasReport
	case h.recorded:
		return StateHasLatestTrials
	default:
		return StateIdle
	}
}

// UpdateLatestTrials replaces the cached trials and search parameters.
// Both are copied; later changes by the caller do not leak in.
func (h *Handler) UpdateLatestTrials(trials []types.StudyInfo, params search.Parameters) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trials = append([]types.StudyInfo(nil), trials...)
	h.params = params.Clone()
	h.recorded = true
	h.logger.Debug("latest trials updated", "trials", len(trials))
}

// LatestTrials returns a copy of the cached trials, empty if none.
func (h *Handler) LatestTrials() []types.StudyInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.StudyInfo, len(h.trials))
	copy(out, h.trials)
	return out
}

// LatestParameters returns a copy of the cached search parameters.
func (h *Handler) LatestParameters() search.Parameters {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params.Clone()
}

// GenerateReport builds a report from the cached trials and mem, stores it
// as the current report and returns it. An empty cache yields a report
// with no trials.
func (h *Handler) GenerateReport(mem map[string]string, generatedBy types.GeneratedBy, conversationComplete bool, finalNotes string) *types.TrialsReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	unique := dedupe(h.trials)
	rankByStartDate(unique)
	total := len(unique)
	if len(unique) > types.MaxReportTrials {
		unique = unique[:types.MaxReportTrials]
	}

	params := h.params.Clone()
	userCtx := buildUserContext(mem)
	now := h.now().UTC()

	r := &types.TrialsReport{
		Timestamp:   now,
		UserContext: userCtx,
		SearchCriteria: types.SearchCriteria{
			Condition: userCtx.Condition,
			Status:    params.Lookup(search.KeyStatus),
			SortBy:    params.Lookup(search.KeySort),
		},
		Trials: unique,
		Metadata: types.ReportMetadata{
			TotalTrialsFound:     total,
			GeneratedAt:          now,
			SearchParameters:     map[string]any(params),
			GeneratedBy:          generatedBy,
			ConversationComplete: conversationComplete,
			FinalNotes:           strings.TrimSpace(finalNotes),
		},
	}

	h.current = r
	h.logger.Info("trials report generated",
		"trials", len(unique),
		"total_found", total,
		"generated_by", string(generatedBy),
		"complete", conversationComplete)
	return r
}

// Report returns the current report, or nil if none was generated since
// the last Clear.
func (h *Handler) Report() *types.TrialsReport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Clear discards the report and the latest-trials cache.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trials = nil
	h.params = nil
	h.recorded = false
	h.current = nil
}

// buildUserContext reads the fixed memory keys. Condition and purpose fall
// back to placeholders; the optional groups are omitted when empty.
func buildUserContext(mem map[string]string) types.UserContext {
	uc := types.UserContext{
		Condition: valueOr(mem, memory.KeyCondition, UnknownCondition),
		Purpose:   valueOr(mem, memory.KeyPurpose, UnknownPurpose),
	}

	demo := types.Demographics{
		Age:      mem[memory.KeyAge],
		Sex:      mem[memory.KeySex],
		Location: mem[memory.KeyLocation],
	}
	if demo != (types.Demographics{}) {
		uc.Demographics = &demo
	}

	clin := types.ClinicalContext{
		DiagnosisStatus:   mem[memory.KeyDiagnosisStatus],
		CurrentTreatments: mem[memory.KeyCurrentTreatments],
		TreatmentHistory:  mem[memory.KeyTreatmentHistory],
	}
	if clin != (types.ClinicalContext{}) {
		uc.ClinicalContext = &clin
	}
	return uc
}

func valueOr(mem map[string]string, key, fallback string) string {
	if v, ok := mem[key]; ok && v != "" {
		return v
	}
	return fallback
}

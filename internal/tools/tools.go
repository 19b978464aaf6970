// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools exposes the three operations the conversational agent may
// invoke: get_trials, set_memory and generate_report. The voice transport
// calls Dispatcher.Call with the tool name and raw JSON arguments and sends
// the returned value back to the model.
//
// Failures never escape as Go errors from Call: they become status "error"
// results with a message that is safe to read aloud. Details go to the log.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/trialscout/internal/memory"
	"github.com/pdiddy/trialscout/internal/report"
	"github.com/pdiddy/trialscout/internal/search"
	"github.com/pdiddy/trialscout/pkg/types"
)

// ErrUnknownTool is logged when the agent names a tool that does not exist.
var ErrUnknownTool = errors.New("unknown tool")

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// User-facing messages.
const (
	msgSearchFailed = "I'm sorry, I couldn't reach the clinical trials registry just now. Please give me a moment and we can try again."
	msgNoMatches    = "No trials matched these criteria. Broadening the search may help."
	msgNoTrials     = "No trials have been found yet, so there is nothing to put in a report."
	msgReportFailed = "I'm sorry, I couldn't put the report together."
	msgBadArguments = "That request was missing or had invalid details."
	msgUnknownTool  = "That action isn't available."
)

// Searcher runs one page of a trials search.
type Searcher interface {
	Search(ctx context.Context, params search.Parameters, pageSize int) (search.Page, error)
}

// GetTrialsResult is returned by get_trials.
type GetTrialsResult struct {
	Status        string            `json:"status"`
	Trials        []types.StudyInfo `json:"trials"`
	ResultCount   int               `json:"resultCount"`
	TotalCount    *int              `json:"totalCount,omitempty"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
	Message       string            `json:"message"`
}

// SetMemoryResult is returned by set_memory.
type SetMemoryResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// GenerateReportResult is returned by generate_report. EndSession tells
// the transport to close the conversation after replying.
type GenerateReportResult struct {
	Status          string `json:"status"`
	ReportTimestamp string `json:"reportTimestamp,omitempty"`
	Message         string `json:"message,omitempty"`
	EndSession      bool   `json:"endSession"`
}

// ErrorResult is returned for unknown tools and invalid arguments.
type ErrorResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Output is the outcome of a Call.
type Output struct {
	Tool       string
	Value      any
	EndSession bool
}

// JSON encodes the tool's reply for the model.
func (o Output) JSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// Dispatcher routes tool calls to the session's search client, memory store
// and report handler.
type Dispatcher struct {
	searcher      Searcher
	handler       *report.Handler
	memory        memory.Store
	pageSize      int
	requireTrials bool
	logger        *slog.Logger
	schemas       map[string]*jsonschema.Schema
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPageSize sets the page size used by get_trials (default 20).
func WithPageSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.pageSize = n
		}
	}
}

// WithRequireTrials makes generate_report fail when no trials are cached.
func WithRequireTrials(require bool) Option {
	return func(d *Dispatcher) { d.requireTrials = require }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher wires the tool surface for one session.
func NewDispatcher(s Searcher, h *report.Handler, m memory.Store, opts ...Option) (*Dispatcher, error) {
	if s == nil || h == nil || m == nil {
		return nil, fmt.Errorf("searcher, report handler and memory store are required")
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		searcher: s,
		handler:  h,
		memory:   m,
		pageSize: 20,
		logger:   slog.Default(),
		schemas:  schemas,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Call validates raw against the named tool's schema and runs it.
func (d *Dispatcher) Call(ctx context.Context, name string, raw json.RawMessage) Output {
	schema, ok := d.schemas[name]
	if !ok {
		d.logger.WarnContext(ctx, "tool call rejected", "tool", name, "error", ErrUnknownTool)
		return Output{Tool: name, Value: ErrorResult{Status: StatusError, Message: msgUnknownTool}}
	}
	if err := validateArgs(schema, raw); err != nil {
		d.logger.WarnContext(ctx, "tool arguments invalid", "tool", name, "error", err)
		return Output{Tool: name, Value: ErrorResult{Status: StatusError, Message: msgBadArguments}}
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch name {
	case ToolGetTrials:
		var params search.Parameters
		if err := json.Unmarshal(raw, &params); err != nil {
			return d.badArgs(ctx, name, err)
		}
		return Output{Tool: name, Value: d.GetTrials(ctx, params)}

	case ToolSetMemory:
		var args struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return d.badArgs(ctx, name, err)
		}
		return Output{Tool: name, Value: d.SetMemory(ctx, args.Key, args.Value)}

	default: // ToolGenerateReport
		var args struct {
			ConversationComplete bool   `json:"conversationComplete"`
			FinalNotes           string `json:"finalNotes"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return d.badArgs(ctx, name, err)
		}
		res := d.GenerateReport(ctx, args.ConversationComplete, args.FinalNotes)
		return Output{Tool: name, Value: res, EndSession: res.EndSession}
	}
}

func (d *Dispatcher) badArgs(ctx context.Context, name string, err error) Output {
	d.logger.WarnContext(ctx, "tool arguments undecodable", "tool", name, "error", err)
	return Output{Tool: name, Value: ErrorResult{Status: StatusError, Message: msgBadArguments}}
}

// GetTrials searches and, on success, replaces the handler's latest trials.
// A failed search leaves the handler untouched.
func (d *Dispatcher) GetTrials(ctx context.Context, params search.Parameters) GetTrialsResult {
	start := time.Now()
	page, err := d.searcher.Search(ctx, params, d.pageSize)
	if err != nil {
		attrs := []any{"tool", ToolGetTrials, "error", err, "duration_ms", time.Since(start).Milliseconds()}
		var httpErr *search.HTTPError
		if errors.As(err, &httpErr) {
			attrs = append(attrs, "status", httpErr.StatusCode)
		}
		d.logger.ErrorContext(ctx, "trials search failed", attrs...)
		return GetTrialsResult{
			Status:  StatusError,
			Trials:  []types.StudyInfo{},
			Message: msgSearchFailed,
		}
	}

	d.handler.UpdateLatestTrials(page.Studies, params)

	msg := fmt.Sprintf("Found %d trials.", len(page.Studies))
	if page.TotalCount != nil {
		msg = fmt.Sprintf("Found %d trials (%d match in total).", len(page.Studies), *page.TotalCount)
	}
	if len(page.Studies) == 0 {
		msg = msgNoMatches
	}
	d.logger.InfoContext(ctx, "trials search completed",
		"tool", ToolGetTrials,
		"results", len(page.Studies),
		"duration_ms", time.Since(start).Milliseconds())

	return GetTrialsResult{
		Status:        StatusSuccess,
		Trials:        page.Studies,
		ResultCount:   len(page.Studies),
		TotalCount:    page.TotalCount,
		NextPageToken: page.NextPageToken,
		Message:       msg,
	}
}

// SetMemory normalizes key to lowercase-with-underscores and upserts it.
func (d *Dispatcher) SetMemory(ctx context.Context, key, value string) SetMemoryResult {
	key = NormalizeKey(key)
	if err := d.memory.Set(ctx, key, strings.TrimSpace(value)); err != nil {
		d.logger.ErrorContext(ctx, "memory write failed", "tool", ToolSetMemory, "key", key, "error", err)
		return SetMemoryResult{OK: false, Message: "I couldn't save that detail."}
	}
	d.logger.DebugContext(ctx, "memory updated", "key", key)
	return SetMemoryResult{OK: true}
}

// GenerateReport builds the assistant-triggered report and signals the end
// of the session.
func (d *Dispatcher) GenerateReport(ctx context.Context, conversationComplete bool, finalNotes string) GenerateReportResult {
	if d.requireTrials && len(d.handler.LatestTrials()) == 0 {
		d.logger.WarnContext(ctx, "report refused", "tool", ToolGenerateReport, "error", report.ErrNoTrials)
		return GenerateReportResult{Status: StatusError, Message: msgNoTrials}
	}

	mem, err := d.memory.GetAll(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "memory snapshot failed", "tool", ToolGenerateReport, "error", err)
		return GenerateReportResult{Status: StatusError, Message: msgReportFailed}
	}

	r := d.handler.GenerateReport(mem, types.GeneratedByAssistant, conversationComplete, finalNotes)
	return GenerateReportResult{
		Status:          StatusSuccess,
		ReportTimestamp: r.Timestamp.Format(time.RFC3339),
		EndSession:      true,
	}
}

// NormalizeKey lowercases key and joins its words with underscores.
func NormalizeKey(key string) string {
	fields := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t' || r == '.'
	})
	return strings.Join(fields, "_")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session wires one conversation's state: a report handler, a
// memory store and the tool dispatcher that drives both. Nothing is shared
// between sessions.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/trialscout/internal/memory"
	"github.com/pdiddy/trialscout/internal/report"
	"github.com/pdiddy/trialscout/internal/tools"
	"github.com/pdiddy/trialscout/pkg/types"
)

// Session is a single conversation.
type Session struct {
	id      string
	started time.Time
	handler *report.Handler
	memory  memory.Store
	tools   *tools.Dispatcher
	logger  *slog.Logger

	mu    sync.Mutex
	ended bool
}

type options struct {
	id     string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithID fixes the session ID instead of generating one.
func WithID(id string) Option { return func(o *options) { o.id = id } }

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLogger sets the structured logger. The session ID is attached to
// every record.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New builds a session around searcher and store. A nil store gets an
// in-process MapStore. When store is a SQLiteStore its session ID is
// adopted so rows and logs agree.
func New(cfg types.AppConfig, searcher tools.Searcher, store memory.Store, opts ...Option) (*Session, error) {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if sq, ok := store.(*memory.SQLiteStore); ok && o.id == "" {
		o.id = sq.SessionID()
	}
	if o.id == "" {
		o.id = NewID()
	}
	if store == nil {
		store = memory.NewMapStore()
	}

	logger := o.logger.With("session", o.id)
	h := report.NewHandler(report.WithClock(o.now), report.WithLogger(logger))
	d, err := tools.NewDispatcher(searcher, h, store,
		tools.WithPageSize(cfg.Search.PageSize),
		tools.WithRequireTrials(cfg.Report.RequireTrials),
		tools.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("building tool dispatcher: %w", err)
	}

	logger.Info("session started", "memory_backend", backendName(store))
	return &Session{
		id:      o.id,
		started: o.now(),
		handler: h,
		memory:  store,
		tools:   d,
		logger:  logger,
	}, nil
}

// Open generates a session ID, opens the memory backend cfg.Memory names
// and builds the session.
func Open(cfg types.AppConfig, searcher tools.Searcher, opts ...Option) (*Session, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	id := o.id
	if id == "" {
		id = NewID()
	}
	store, err := OpenStore(cfg.Memory, id)
	if err != nil {
		return nil, err
	}
	s, err := New(cfg, searcher, store, append(opts, WithID(id))...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore returns the memory backend named by cfg.
func OpenStore(cfg types.MemoryConfig, sessionID string) (memory.Store, error) {
	switch cfg.Backend {
	case "", types.MemoryInProcess:
		return memory.NewMapStore(), nil
	case types.MemorySQLite:
		s, err := memory.OpenSQLite(cfg.DBPath, sessionID)
		if err != nil {
			return nil, fmt.Errorf("opening memory store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

// NewID returns a random session ID.
func NewID() string { return uuid.NewString() }

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) Started() time.Time { return s.started }

func (s *Session) Handler() *report.Handler { return s.handler }

func (s *Session) Memory() memory.Store { return s.memory }

func (s *Session) Dispatcher() *tools.Dispatcher { return s.tools }

// Ended reports whether a report has closed the conversation.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Call runs a tool for the agent. A generate_report that asks to end the
// conversation marks the session ended.
func (s *Session) Call(ctx context.Context, name string, args json.RawMessage) tools.Output {
	out := s.tools.Call(ctx, name, args)
	if out.EndSession {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "session ended by agent", "tool", name)
	}
	return out
}

// GenerateUserReport builds the report the user asked for directly, for
// example from an "end and show results" control. It bypasses the
// dispatcher's RequireTrials policy and always records a complete
// conversation.
func (s *Session) GenerateUserReport(ctx context.Context, finalNotes string) (*types.TrialsReport, error) {
	mem, err := s.memory.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session memory: %w", err)
	}
	r := s.handler.GenerateReport(mem, types.GeneratedByUser, true, finalNotes)

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "session ended by user", "trials", len(r.Trials))
	return r, nil
}

// Reset forgets everything the conversation accumulated and reopens it.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.memory.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session memory: %w", err)
	}
	s.handler.Clear()

	s.mu.Lock()
	s.ended = false
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "session reset")
	return nil
}

// Close releases the memory store.
func (s *Session) Close() error {
	s.logger.Debug("session closed")
	return s.memory.Close()
}

func backendName(store memory.Store) types.MemoryBackend {
	if _, ok := store.(*memory.SQLiteStore); ok {
		return types.MemorySQLite
	}
	return types.MemoryInProcess
}

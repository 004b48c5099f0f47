package engine

import (
	"context"
	"log/slog"
	"time"
)

// EventKind identifies the lifecycle point an Event reports.
type EventKind int

// Lifecycle points reported to Instrumentation.
const (
	EventEstablishStart EventKind = iota
	EventEstablishFinish
	EventCacheHit
	EventCacheMiss
	EventQueryStart
	EventQueryFinish
	EventBegin
	EventCommit
	EventRollback
)

var eventNames = [...]string{
	EventEstablishStart:  "establish_start",
	EventEstablishFinish: "establish_finish",
	EventCacheHit:        "cache_hit",
	EventCacheMiss:       "cache_miss",
	EventQueryStart:      "query_start",
	EventQueryFinish:     "query_finish",
	EventBegin:           "begin",
	EventCommit:          "commit",
	EventRollback:        "rollback",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event describes one instrumented operation. Fields that do not apply to
// the kind are left zero.
type Event struct {
	Kind         EventKind
	ConnectionID string
	URL          string
	QueryID      string
	SQL          string
	CacheKey     string
	Duration     time.Duration
	RowsAffected int64
	Rows         int
	Err          error
}

// Instrumentation receives connection lifecycle events. Implementations run
// synchronously on the calling goroutine.
type Instrumentation interface {
	OnEvent(Event)
}

// InstrumentationFunc adapts a function to Instrumentation.
type InstrumentationFunc func(Event)

// OnEvent calls f(e).
func (f InstrumentationFunc) OnEvent(e Event) { f(e) }

// NopInstrumentation discards every event.
type NopInstrumentation struct{}

// OnEvent does nothing.
func (NopInstrumentation) OnEvent(Event) {}

// SlogInstrumentation writes events to a structured logger. Query and
// transaction events log at info (error on failure); cache events at debug.
type SlogInstrumentation struct {
	Logger *slog.Logger
}

// NewSlogInstrumentation returns instrumentation logging to logger, or to
// slog.Default() when logger is nil.
func NewSlogInstrumentation(logger *slog.Logger) *SlogInstrumentation {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogInstrumentation{Logger: logger.With("component", "engine")}
}

// OnEvent implements Instrumentation.
func (s *SlogInstrumentation) OnEvent(e Event) {
	attrs := []slog.Attr{slog.String("event", e.Kind.String())}
	if e.ConnectionID != "" {
		attrs = append(attrs, slog.String("connection_id", e.ConnectionID))
	}

	level := slog.LevelInfo
	switch e.Kind {
	case EventEstablishStart, EventEstablishFinish:
		attrs = append(attrs, slog.String("url", e.URL))
	case EventCacheHit, EventCacheMiss:
		level = slog.LevelDebug
		attrs = append(attrs, slog.String("cache_key", e.CacheKey))
	case EventQueryStart:
		level = slog.LevelDebug
		attrs = append(attrs, slog.String("query_id", e.QueryID), slog.String("sql", e.SQL))
	case EventQueryFinish:
		attrs = append(attrs,
			slog.String("query_id", e.QueryID),
			slog.Int64("rows_affected", e.RowsAffected),
			slog.Int("rows", e.Rows),
		)
	}
	if e.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", e.Duration))
	}
	if e.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	s.Logger.LogAttrs(context.Background(), level, "duckdb "+e.Kind.String(), attrs...)
}

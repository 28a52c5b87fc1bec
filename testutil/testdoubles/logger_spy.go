package testdoubles

import (
	"context"
	"strings"
	"sync"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level      string
	Message    string
	Args       []any
	Context    context.Context
	Contextual bool
}

// LoggerSpy captures calls to both eventstore.Logger and eventstore.ContextualLogger.
type LoggerSpy struct {
	records []LogRecord
	mu      sync.Mutex
}

func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record(nil, LevelDebug, msg, args, false) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record(nil, LevelInfo, msg, args, false) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record(nil, LevelWarn, msg, args, false) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record(nil, LevelError, msg, args, false) }

func (s *LoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelDebug, msg, args, true)
}

func (s *LoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelInfo, msg, args, true)
}

func (s *LoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelWarn, msg, args, true)
}

func (s *LoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelError, msg, args, true)
}

func (s *LoggerSpy) record(ctx context.Context, level string, msg string, args []any, contextual bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{
		Level:      level,
		Message:    msg,
		Args:       append([]any(nil), args...),
		Context:    ctx,
		Contextual: contextual,
	})
}

// Records returns a copy of all captured records of the given level.
func (s *LoggerSpy) Records(level string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]LogRecord, 0)
	for _, r := range s.records {
		if r.Level == level {
			records = append(records, r)
		}
	}

	return records
}

// HasMessage reports whether a record of this level contains the given message part.
func (s *LoggerSpy) HasMessage(level string, messagePart string) bool {
	for _, r := range s.Records(level) {
		if strings.Contains(r.Message, messagePart) {
			return true
		}
	}

	return false
}

// HasAttr reports whether a record of this level carries the key as one of its args.
func (s *LoggerSpy) HasAttr(level string, key string) bool {
	for _, r := range s.Records(level) {
		for i := 0; i < len(r.Args)-1; i += 2 {
			if k, ok := r.Args[i].(string); ok && k == key {
				return true
			}
		}
	}

	return false
}

func (s *LoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// pattern: Imperative Shell

package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when logging is not configured.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// TestLogManager provides a LoggerProvider suitable for tests.
// It records entries in memory (no file) for easy verification.
type TestLogManager struct {
	sink    *MemorySink
	baseZap *zap.Logger
	loggers map[string]*ScopedLogger
	mu      sync.Mutex
}

// NewTestLogManager creates a LoggerProvider that logs everything at debug level to memory.
func NewTestLogManager() *TestLogManager {
	sink := NewMemorySink()

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(jsonEncoderConfig()),
		zapcore.AddSync(sink),
		zapcore.DebugLevel,
	)

	return &TestLogManager{
		sink:    sink,
		baseZap: zap.New(core),
		loggers: make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
// Named For() to match the production Manager API.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[scope]; ok {
		return logger
	}

	logger := newScopedLogger(m.baseZap, scope, zapcore.DebugLevel)
	m.loggers[scope] = logger
	return logger
}

// Entries returns all recorded entries.
func (m *TestLogManager) Entries() []LogEntry {
	return m.sink.Entries()
}

// EntriesFor returns the recorded entries whose scope starts with prefix.
func (m *TestLogManager) EntriesFor(prefix string) []LogEntry {
	var out []LogEntry
	for _, e := range m.sink.Entries() {
		if e.MatchesScope(prefix) {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether any entry under prefix carries msg.
func (m *TestLogManager) HasMessage(prefix, msg string) bool {
	for _, e := range m.EntriesFor(prefix) {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// Package module defines the Module/Host capability interfaces and the
// embeddable helper structs that give concrete modules their input/output
// bookkeeping, matching the original framework's inheritance hierarchy
// turned into Go interfaces plus struct embedding.
package module

import (
	"context"
	"log/slog"
	"sync"
)

// Level is a module log severity, ordered Quiet < Error < Warning < Info < Debug.
type Level int

const (
	Quiet Level = iota
	Error
	Warning
	Info
	Debug
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "quiet"
	}
}

// Host is the interface a module uses to talk back to its pipeline: log
// messages and declare its activation mode.
type Host interface {
	// Log records a message at the given level. Identical consecutive
	// messages from the same module are rate-limited (logged once,
	// then suppressed; a "repeated N times" summary is logged when a
	// different message next arrives).
	Log(level Level, msg string, args ...any)
	// Activate declares the module active (source-like: the pipeline
	// must drive it continuously) or passive (driven by incoming
	// packets only).
	Activate(active bool)
}

// SlogHost is a Host backed by log/slog, with consecutive-duplicate
// rate-limiting per spec §4.4.
type SlogHost struct {
	logger *slog.Logger
	name   string

	mu       sync.Mutex
	lastMsg  string
	repeats  int
	onActive func(bool)
}

// NewSlogHost creates a Host that logs through logger, tagging every
// message with the module's name. onActive is invoked when the module
// calls Activate; it is typically wired to the pipeline's active-module
// registry.
func NewSlogHost(logger *slog.Logger, name string, onActive func(bool)) *SlogHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHost{logger: logger, name: name, onActive: onActive}
}

// Log implements Host. A message identical to the immediately preceding
// one is counted but not re-emitted; the count is flushed as a single
// "repeated N times" line the next time a different message arrives.
func (h *SlogHost) Log(level Level, msg string, args ...any) {
	h.mu.Lock()
	if msg == h.lastMsg {
		h.repeats++
		h.mu.Unlock()
		return
	}
	prev, prevRepeats := h.lastMsg, h.repeats
	h.lastMsg, h.repeats = msg, 0
	h.mu.Unlock()

	if prevRepeats > 0 {
		h.logger.Debug("repeated log message suppressed", "module", h.name, "message", prev, "count", prevRepeats)
	}

	slogLevel := toSlogLevel(level)
	h.logger.Log(context.Background(), slogLevel, msg, append([]any{"module", h.name}, args...)...)
}

// Activate implements Host.
func (h *SlogHost) Activate(active bool) {
	if h.onActive != nil {
		h.onActive(active)
	}
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	case Info:
		return slog.LevelInfo
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

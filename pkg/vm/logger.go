package vm

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger for the VM's debug tracing facility.
//
// This is pure observability: when disabled (the default), every method
// is a no-op, so the evaluator's hot loop pays nothing for it, and it
// never touches stdout (`println` output) or any control-flow decision -
// the evaluator remains deterministic and synchronous regardless of
// whether logging is enabled.
type Logger struct {
	log     zerolog.Logger
	enabled bool
}

// NewLogger creates a disabled logger writing to w if later enabled.
// Pass os.Stderr in production; tests typically pass io.Discard.
func NewLogger(w io.Writer) *Logger {
	return &Logger{log: zerolog.New(w).With().Timestamp().Logger(), enabled: false}
}

// SetVerbose enables or disables debug tracing.
func (l *Logger) SetVerbose(v bool) {
	l.enabled = v
	if v {
		l.log = l.log.Level(zerolog.DebugLevel)
	} else {
		l.log = l.log.Level(zerolog.Disabled)
	}
}

// Call logs entry into a function or method call.
func (l *Logger) Call(name, className string, isMethod bool) {
	if !l.enabled {
		return
	}
	ev := l.log.Debug().Str("event", "call").Str("fn", name)
	if isMethod {
		ev = ev.Str("class", className)
	}
	ev.Msg("entering call")
}

// Return logs a return from the current frame.
func (l *Logger) Return(name string) {
	if !l.enabled {
		return
	}
	l.log.Debug().Str("event", "return").Str("fn", name).Msg("returning from call")
}

// ScopePush logs a new scope node being pushed.
func (l *Logger) ScopePush() {
	if !l.enabled {
		return
	}
	l.log.Debug().Str("event", "scope_push").Msg("entering scope")
}

// ScopePop logs a scope node being popped.
func (l *Logger) ScopePop() {
	if !l.enabled {
		return
	}
	l.log.Debug().Str("event", "scope_pop").Msg("leaving scope")
}

// Alloc logs a heap allocation.
func (l *Logger) Alloc(id int, kind string) {
	if !l.enabled {
		return
	}
	l.log.Debug().Str("event", "alloc").Int("id", id).Str("kind", kind).Msg("allocated object")
}

package errors

import (
	"github.com/charmbracelet/log"
)

// LogHandler is an ErrorHandler that writes to a charmbracelet logger.
type LogHandler struct {
	// Logger receives the output. Nil means log.Default().
	Logger *log.Logger
	// Verbose enables stack traces.
	Verbose bool
}

func (h *LogHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// HandleError logs a LoomError at error level.
func (h *LogHandler) HandleError(err *LoomError) {
	if err == nil {
		return
	}
	kv := []any{"op", err.Op, "kind", err.Kind.String()}
	if err.Node != "" {
		kv = append(kv, "node", err.Node)
	}
	if h.Verbose && err.StackTrace != "" {
		kv = append(kv, "stack", err.StackTrace)
	}
	h.logger().Error(err.Err, kv...)
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	kv := []any{"op", err.Op}
	if h.Verbose && err.StackTrace != "" {
		kv = append(kv, "stack", err.StackTrace)
	}
	h.logger().Error("panic", append(kv, "value", err.Value)...)
}

// HandleWarning logs a Warning at warn level.
func (h *LogHandler) HandleWarning(w *Warning) {
	if w == nil {
		return
	}
	kv := []any{"op", w.Op}
	if w.Node != "" {
		kv = append(kv, "node", w.Node)
	}
	h.logger().Warn(w.Message, kv...)
}

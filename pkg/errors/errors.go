// Package errors provides structured error handling for the Loom engine.
//
// Errors fall into three groups. Usage errors (hook slot mismatches, duplicate
// scheduler start/stop, unknown node or media types) are programming mistakes
// that abort the offending operation. Configuration errors (bad bounds
// expressions, gap combined with overlap) are reported where they are
// resolved. Warnings are advisory and never stop a render.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindUsage indicates a programming error such as a conditional hook call.
	KindUsage
	// KindConfig indicates an invalid layout or engine configuration.
	KindConfig
	// KindRender indicates a backend failure while drawing.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindBuild indicates a component body failed.
	KindBuild
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindConfig:
		return "config"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindBuild:
		return "build"
	default:
		return "unknown"
	}
}

// Sentinel errors. Match them with errors.Is.
var (
	ErrHookMismatch     = stderrors.New("hook order changed between renders")
	ErrNoPrevSibling    = stderrors.New("prev-relative value has no preceding sibling")
	ErrGapWithOverlap   = stderrors.New("gap is not allowed with overlap direction")
	ErrUnknownNode      = stderrors.New("unknown node kind")
	ErrUnsupportedMedia = stderrors.New("unsupported media extension")
	ErrAlreadyStarted   = stderrors.New("scheduler already started")
	ErrNotStarted       = stderrors.New("scheduler not started")
	ErrDisposed         = stderrors.New("engine disposed")
)

// LoomError represents a structured error in the engine.
type LoomError struct {
	// Op is the operation that failed (e.g., "layout.Render").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Node describes the node or component involved, if any.
	Node string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *LoomError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s [%s] node=%s: %v", e.Op, e.Kind, e.Node, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *LoomError) Unwrap() error {
	return e.Err
}

// New builds a LoomError for op, classifying err by its sentinel when kind
// is KindUnknown.
func New(op string, kind ErrorKind, err error) *LoomError {
	if kind == KindUnknown {
		kind = Classify(err)
	}
	return &LoomError{Op: op, Kind: kind, Err: err}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "engine.Frame").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// HookError reports that a component called its hooks in a different order
// or number than on its first render.
type HookError struct {
	// Component is the component definition name.
	Component string
	// Index is the slot index where the mismatch was detected.
	Index int
	// Want is the hook kind (or slot count) recorded at construction.
	Want string
	// Got is the hook kind (or slot count) observed in this render.
	Got string
}

func (e *HookError) Error() string {
	return fmt.Sprintf("component %s: hook slot %d: want %s, got %s", e.Component, e.Index, e.Want, e.Got)
}

func (e *HookError) Unwrap() error {
	return ErrHookMismatch
}

// BuildError represents a failure inside a component body.
type BuildError struct {
	// Component is the component definition name.
	Component string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error in %s: %v", e.Component, e.Err)
	}
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s: %v", e.Component, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s", e.Component)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Warning is an advisory message. Rendering continues with a defined default.
type Warning struct {
	Op      string
	Message string
	Node    string
}

func (w *Warning) String() string {
	if w.Node != "" {
		return fmt.Sprintf("%s node=%s: %s", w.Op, w.Node, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Op, w.Message)
}

// Classify maps err to a kind by inspecting its chain.
func Classify(err error) ErrorKind {
	var le *LoomError
	switch {
	case err == nil:
		return KindUnknown
	case stderrors.As(err, &le) && le.Kind != KindUnknown:
		return le.Kind
	case stderrors.Is(err, ErrHookMismatch),
		stderrors.Is(err, ErrUnknownNode),
		stderrors.Is(err, ErrUnsupportedMedia),
		stderrors.Is(err, ErrAlreadyStarted),
		stderrors.Is(err, ErrNotStarted),
		stderrors.Is(err, ErrDisposed):
		return KindUsage
	case stderrors.Is(err, ErrNoPrevSibling), stderrors.Is(err, ErrGapWithOverlap):
		return KindConfig
	}
	var be *BuildError
	if stderrors.As(err, &be) {
		return KindBuild
	}
	var pe *PanicError
	if stderrors.As(err, &pe) {
		return KindPanic
	}
	return KindUnknown
}

// IsUsage reports whether err is a programming error.
func IsUsage(err error) bool { return Classify(err) == KindUsage }

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return Classify(err) == KindConfig }

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *LoomError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleWarning is called for advisory messages.
	HandleWarning(w *Warning)
}

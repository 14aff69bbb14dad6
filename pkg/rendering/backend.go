// Package rendering defines the draw contract between the engine and its
// backends.
//
// A backend turns resolved boxes into opaque primitive handles. The engine
// only calls the Draw methods on cache misses; handles from earlier frames are
// reused and handed back to Present in z order.
package rendering

import (
	"github.com/go-drift/loom/pkg/bounds"
)

// Handle is an opaque backend primitive.
type Handle any

// WrapMode controls how text that exceeds its box width is laid out.
type WrapMode int

const (
	// WrapNone truncates each line at the box edge.
	WrapNone WrapMode = iota
	// WrapChar breaks lines at any character.
	WrapChar
	// WrapWord breaks lines at word boundaries where possible.
	WrapWord
)

func (w WrapMode) String() string {
	switch w {
	case WrapChar:
		return "char"
	case WrapWord:
		return "word"
	default:
		return "none"
	}
}

// Key is a keyboard event delivered by a backend.
type Key struct {
	// Name is a symbolic key name ("enter", "up", "q").
	Name string
	Rune rune
	Ctrl bool
	Alt  bool
}

// InputHandler receives key events.
type InputHandler func(Key)

// Backend is implemented by every concrete renderer.
type Backend interface {
	// Clear removes all prior visible output.
	Clear()
	// DrawText returns a primitive for content laid out in box.
	DrawText(box bounds.BoundingBox, wrap WrapMode, content string) (Handle, error)
	// DrawSolidColor returns a primitive filling box.
	DrawSolidColor(box bounds.BoundingBox, color Color) (Handle, error)
	// DrawImage returns a primitive for the raster image at path.
	DrawImage(box bounds.BoundingBox, path string) (Handle, error)
	// DrawVectorImage returns a primitive for the vector image at path.
	DrawVectorImage(box bounds.BoundingBox, path string) (Handle, error)
	// Present makes handles visible, lowest z first.
	Present(handles []Handle) error
	// RootBoundingBox returns the top-level box (terminal or canvas size).
	RootBoundingBox() bounds.BoundingBox
	// CaptureInput registers handler and returns a function that removes it.
	CaptureInput(handler InputHandler) (unregister func())
}

// Releaser is implemented by backends that hold resources per handle. The
// engine calls Release once a handle can no longer be presented.
type Releaser interface {
	Release(h Handle)
}

// Flusher is implemented by backends that buffer Clear until the next
// Present. The engine calls Flush after a Clear that no Present follows,
// such as when hiding.
type Flusher interface {
	Flush() error
}

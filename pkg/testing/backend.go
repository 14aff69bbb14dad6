package testing

import (
	"fmt"
	"sync"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/rendering"
)

// Op is one recorded draw call. The draw methods of RecordingBackend return
// the *Op itself as the handle.
type Op struct {
	Seq   int
	Kind  string
	Box   bounds.BoundingBox
	Text  string
	Wrap  rendering.WrapMode
	Color rendering.Color
	Path  string
}

func (o Op) String() string {
	switch o.Kind {
	case "text":
		return fmt.Sprintf("text %q @%s", o.Text, o.Box)
	case "color":
		return fmt.Sprintf("color %s @%s", o.Color.Hex(), o.Box)
	default:
		return fmt.Sprintf("%s %s @%s", o.Kind, o.Path, o.Box)
	}
}

// RecordingBackend is an in-memory backend that records every call. All
// methods are safe for concurrent use.
type RecordingBackend struct {
	mu       sync.Mutex
	root     bounds.BoundingBox
	ops      []*Op
	visible  []*Op
	clears   int
	presents int
	released map[*Op]bool
	handlers map[int]rendering.InputHandler
	nextID   int

	// Fail, when set, is consulted before each draw. A non-nil result fails
	// the draw with that error.
	Fail func(op Op) error
	// FailPresent, when set, is returned by Present.
	FailPresent error
}

// NewRecordingBackend returns a backend whose root box is width x height.
func NewRecordingBackend(width, height float64) *RecordingBackend {
	return &RecordingBackend{
		root:     bounds.BoundingBox{Width: width, Height: height},
		released: make(map[*Op]bool),
		handlers: make(map[int]rendering.InputHandler),
	}
}

// SetSize changes the root box.
func (b *RecordingBackend) SetSize(width, height float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.root.Width, b.root.Height = width, height
}

func (b *RecordingBackend) record(op Op) (rendering.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	op.Seq = len(b.ops)
	if b.Fail != nil {
		if err := b.Fail(op); err != nil {
			return nil, err
		}
	}
	rec := &op
	b.ops = append(b.ops, rec)
	return rec, nil
}

func (b *RecordingBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears++
	b.visible = nil
}

func (b *RecordingBackend) DrawText(box bounds.BoundingBox, wrap rendering.WrapMode, content string) (rendering.Handle, error) {
	return b.record(Op{Kind: "text", Box: box, Wrap: wrap, Text: content})
}

func (b *RecordingBackend) DrawSolidColor(box bounds.BoundingBox, c rendering.Color) (rendering.Handle, error) {
	return b.record(Op{Kind: "color", Box: box, Color: c})
}

func (b *RecordingBackend) DrawImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	return b.record(Op{Kind: "image", Box: box, Path: path})
}

func (b *RecordingBackend) DrawVectorImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	return b.record(Op{Kind: "vector", Box: box, Path: path})
}

func (b *RecordingBackend) Present(handles []rendering.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPresent != nil {
		return b.FailPresent
	}
	b.presents++
	b.visible = b.visible[:0]
	for _, h := range handles {
		op, ok := h.(*Op)
		if !ok {
			return fmt.Errorf("recording backend: foreign handle %T", h)
		}
		if b.released[op] {
			return fmt.Errorf("recording backend: presenting released op %d", op.Seq)
		}
		b.visible = append(b.visible, op)
	}
	return nil
}

func (b *RecordingBackend) Release(h rendering.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if op, ok := h.(*Op); ok {
		b.released[op] = true
	}
}

func (b *RecordingBackend) RootBoundingBox() bounds.BoundingBox {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

func (b *RecordingBackend) CaptureInput(handler rendering.InputHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Press delivers k to every registered handler.
func (b *RecordingBackend) Press(k rendering.Key) {
	b.mu.Lock()
	handlers := make([]rendering.InputHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(k)
	}
}

// Handlers returns the number of registered input handlers.
func (b *RecordingBackend) Handlers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Draws returns the number of draw calls so far.
func (b *RecordingBackend) Draws() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}

// Ops returns a copy of every recorded draw call in call order.
func (b *RecordingBackend) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.ops))
	for i, op := range b.ops {
		out[i] = *op
	}
	return out
}

// Visible returns the ops of the last Present, lowest z first. It is empty
// after Clear.
func (b *RecordingBackend) Visible() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.visible))
	for i, op := range b.visible {
		out[i] = *op
	}
	return out
}

// Clears returns the number of Clear calls.
func (b *RecordingBackend) Clears() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clears
}

// Presents returns the number of successful Present calls.
func (b *RecordingBackend) Presents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presents
}

// Released returns the number of released handles.
func (b *RecordingBackend) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.released)
}

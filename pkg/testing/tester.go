package testing

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/engine"
	"github.com/go-drift/loom/pkg/layout"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

const (
	// DefaultWidth is the default width of the test surface in cells.
	DefaultWidth = 80
	// DefaultHeight is the default height of the test surface in cells.
	DefaultHeight = 24
	// maxSettleFrames bounds PumpUntilIdle.
	maxSettleFrames = 100
)

// ErrSettleTimeout is returned when PumpUntilIdle runs out of frames.
var ErrSettleTimeout = errors.New("PumpUntilIdle: tree did not settle")

// Tester drives an engine over a RecordingBackend with manual frames. It is
// not safe for concurrent use; tests that start the timer should drive it
// through Tickers instead of Pump.
type Tester struct {
	t       testing.TB
	backend *RecordingBackend
	engine  *engine.Engine
	tickers *Tickers
}

// NewTester mounts def with props on a DefaultWidth x DefaultHeight backend.
// The engine is disposed when the test ends. Nothing renders until the
// first Pump.
func NewTester[P any](t testing.TB, def *core.Def[P], props P) *Tester {
	t.Helper()
	backend := NewRecordingBackend(DefaultWidth, DefaultHeight)
	tickers := &Tickers{}
	e := engine.New(backend, core.NewRoot(def, props), engine.Options{
		Logger:       log.New(io.Discard),
		NewTicker:    tickers.New,
		TraceSamples: 16,
	})
	t.Cleanup(e.Dispose)
	return &Tester{t: t, backend: backend, engine: e, tickers: tickers}
}

// Engine returns the engine under test.
func (tt *Tester) Engine() *engine.Engine { return tt.engine }

// Backend returns the recording backend.
func (tt *Tester) Backend() *RecordingBackend { return tt.backend }

// Tickers returns the ticker factory handed to the engine.
func (tt *Tester) Tickers() *Tickers { return tt.tickers }

// Root returns the root node of the current tree.
func (tt *Tester) Root() *node.Node { return tt.engine.Root().Node() }

// Pump runs one frame.
func (tt *Tester) Pump() error {
	return tt.engine.Frame()
}

// MustPump runs one frame and fails the test on error.
func (tt *Tester) MustPump() {
	tt.t.Helper()
	if err := tt.engine.Frame(); err != nil {
		tt.t.Fatalf("frame failed: %v", err)
	}
}

// PumpUntilIdle runs frames until nothing is dirty or scheduled.
func (tt *Tester) PumpUntilIdle() error {
	for range maxSettleFrames {
		if err := tt.engine.Frame(); err != nil {
			return err
		}
		if !tt.engine.Dirty() && !tt.engine.Root().Owner().NeedsWork() {
			return nil
		}
	}
	return ErrSettleTimeout
}

// Find evaluates finder against the current tree.
func (tt *Tester) Find(finder Finder) FinderResult {
	return FinderResult{nodes: finder.Evaluate(tt.Root()), finder: finder}
}

// Press delivers a key to every captured input handler. Handlers run on the
// next Pump.
func (tt *Tester) Press(name string) {
	k := rendering.Key{Name: name}
	if r := []rune(name); len(r) == 1 {
		k.Rune = r[0]
	}
	tt.backend.Press(k)
}

// Stats returns the cache counters of the last render pass.
func (tt *Tester) Stats() layout.Stats {
	return tt.engine.Pipeline().Stats()
}

// Resolved returns the cached box of the first node matched by finder.
func (tt *Tester) Resolved(finder Finder) (bounds.BoundingBox, bool) {
	n := tt.Find(finder).FirstOrNil()
	if n == nil {
		return bounds.BoundingBox{}, false
	}
	res, ok := tt.engine.Pipeline().Cached(n)
	return res.Box, ok
}

// CaptureSnapshot captures the current tree and visible ops.
func (tt *Tester) CaptureSnapshot() *Snapshot {
	return CaptureSnapshot(tt.Root(), tt.engine.Pipeline(), tt.backend)
}

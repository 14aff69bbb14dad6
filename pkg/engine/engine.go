// Package engine drives the frame loop. Each executed frame drains work
// handed over with Dispatch, flushes scheduled component renders and passes
// the node tree to the render cache, which draws misses and presents the
// result.
//
// A frame only runs when something marked the engine dirty; otherwise a tick
// is a no-op. Ticks never queue: a slow frame simply absorbs the ticks that
// arrive while it runs.
package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/layout"
	"github.com/go-drift/loom/pkg/rendering"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 30

// Ticker delivers frame ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker returns a Ticker backed by time.Ticker.
func NewTimeTicker(interval time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(interval)}
}

// Options configures an Engine.
type Options struct {
	// FPS is the frame rate used by Start(0). Defaults to DefaultFPS.
	FPS int
	// Logger receives frame diagnostics. Defaults to log.Default().
	Logger *log.Logger
	// NewTicker creates the frame timer. Defaults to NewTimeTicker.
	NewTicker func(interval time.Duration) Ticker
	// TraceSamples is the number of frames kept by Trace.
	TraceSamples int
}

// Engine owns a root component, its render cache and the frame timer.
//
// Lifecycle methods are safe to call from any goroutine, including from
// input handlers and component code running inside a frame. State setters
// are not; hand such work to Dispatch.
type Engine struct {
	backend  rendering.Backend
	root     *core.Root
	pipeline *layout.Pipeline
	logger   *log.Logger
	trace    *FrameTraceBuffer

	newTicker func(time.Duration) Ticker

	// frameMu serializes frames and every access to the tree and cache.
	frameMu sync.Mutex

	// deferMu guards framing and deferred. Work that must touch the tree
	// while a frame is running waits in deferred until the frame ends.
	deferMu  sync.Mutex
	framing  bool
	deferred []func()

	// lifeMu guards the timer state.
	lifeMu  sync.Mutex
	fps     int
	running bool
	ticker  Ticker
	quit    chan struct{}
	inputs  map[int]func()
	inputID int

	dirty    atomic.Bool
	visible  atomic.Bool
	disposed atomic.Bool
	frames   atomic.Uint64
	// entries mirrors pipeline.Len for readers off the loop.
	entries atomic.Int64

	dispatchMu    sync.Mutex
	dispatchQueue []func()
}

// New wires root to backend. The engine starts visible and dirty, so the
// first Frame mounts the root.
func New(backend rendering.Backend, root *core.Root, opts Options) *Engine {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	e := &Engine{
		backend:   backend,
		root:      root,
		pipeline:  layout.NewPipeline(backend),
		logger:    opts.Logger,
		trace:     NewFrameTraceBuffer(opts.TraceSamples, 0),
		newTicker: opts.NewTicker,
		fps:       opts.FPS,
		inputs:    make(map[int]func()),
	}
	owner := root.Owner()
	owner.OnNeedsFrame = e.requestFrame
	owner.OnInvalidate = e.pipeline.Invalidate
	e.visible.Store(true)
	e.dirty.Store(true)
	return e
}

// Root returns the root component.
func (e *Engine) Root() *core.Root { return e.root }

// Pipeline returns the render cache.
func (e *Engine) Pipeline() *layout.Pipeline { return e.pipeline }

// Frames returns the number of frames that ran to completion.
func (e *Engine) Frames() uint64 { return e.frames.Load() }

// Trace returns recent frame samples.
func (e *Engine) Trace() FrameTimeline { return e.trace.Snapshot() }

// Dirty reports whether the next tick will run a frame.
func (e *Engine) Dirty() bool { return e.dirty.Load() }

// Visible reports whether the engine is shown.
func (e *Engine) Visible() bool { return e.visible.Load() }

// Running reports whether Start was called without a matching Stop.
func (e *Engine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.running
}

func (e *Engine) requestFrame() {
	e.dirty.Store(true)
}

// Start runs the frame timer at fps, or at the configured rate when fps is
// zero. While hidden, the timer stays off until Show.
func (e *Engine) Start(fps int) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.disposed.Load() {
		return errors.New("engine.Start", errors.KindUsage, errors.ErrDisposed)
	}
	if e.running {
		return errors.New("engine.Start", errors.KindUsage, errors.ErrAlreadyStarted)
	}
	if fps > 0 {
		e.fps = fps
	}
	e.running = true
	if e.visible.Load() {
		e.startTimerLocked()
	}
	e.logger.Debug("engine started", "fps", e.fps)
	return nil
}

// Stop halts the frame timer. The tree and cache are kept.
func (e *Engine) Stop() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if !e.running {
		return errors.New("engine.Stop", errors.KindUsage, errors.ErrNotStarted)
	}
	e.running = false
	e.stopTimerLocked()
	e.logger.Debug("engine stopped")
	return nil
}

// Run starts the engine and blocks until ctx is done, then stops it.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(0); err != nil {
		return err
	}
	<-ctx.Done()
	if err := e.Stop(); err != nil && !stderrors.Is(err, errors.ErrNotStarted) {
		return err
	}
	return nil
}

// Show restarts the timer if the engine is running and schedules a frame.
func (e *Engine) Show() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.disposed.Load() {
		return
	}
	e.visible.Store(true)
	if e.running && e.ticker == nil {
		e.startTimerLocked()
	}
	e.dirty.Store(true)
}

// Hide stops the timer and clears the backend output.
func (e *Engine) Hide() {
	e.lifeMu.Lock()
	if e.disposed.Load() || !e.visible.Load() {
		e.lifeMu.Unlock()
		return
	}
	e.visible.Store(false)
	e.stopTimerLocked()
	e.lifeMu.Unlock()

	e.onLoop(e.clearOutput)
}

// Reroot replaces the root props and drops the whole cache. The new props
// must have the root definition's props type.
func (e *Engine) Reroot(props any) error {
	if e.disposed.Load() {
		return errors.New("engine.Reroot", errors.KindUsage, errors.ErrDisposed)
	}
	if err := e.root.CheckProps(props); err != nil {
		return err
	}
	e.onLoop(func() {
		if err := e.root.SetProps(props); err != nil {
			e.report(err)
			return
		}
		e.pipeline.InvalidateAll()
	})
	e.dirty.Store(true)
	return nil
}

// ForceRerender schedules a frame even though nothing changed. Cached
// entries stay valid, so only the present step does work.
func (e *Engine) ForceRerender() {
	e.dirty.Store(true)
}

// Dispose stops the engine, tears down the component tree (running every
// cleanup), releases cached primitives and clears the backend. Later calls
// are no-ops.
func (e *Engine) Dispose() {
	e.lifeMu.Lock()
	if e.disposed.Swap(true) {
		e.lifeMu.Unlock()
		return
	}
	e.running = false
	e.stopTimerLocked()
	inputs := e.inputs
	e.inputs = nil
	e.lifeMu.Unlock()

	for _, unregister := range inputs {
		unregister()
	}
	e.onLoop(func() {
		e.root.Dispose()
		e.pipeline.Release()
		e.entries.Store(0)
		e.clearOutput()
	})
	e.logger.Debug("engine disposed", "frames", e.frames.Load())
}

// Dispatch queues fn to run on the frame goroutine at the start of the next
// frame. It is safe to call from any goroutine.
func (e *Engine) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	e.dispatchMu.Lock()
	e.dispatchQueue = append(e.dispatchQueue, fn)
	e.dispatchMu.Unlock()
}

func (e *Engine) drainDispatchQueue() []func() {
	e.dispatchMu.Lock()
	callbacks := e.dispatchQueue
	e.dispatchQueue = nil
	e.dispatchMu.Unlock()
	return callbacks
}

// CaptureInput registers handler with the backend. Key events are delivered
// through Dispatch, so handler may update component state directly.
func (e *Engine) CaptureInput(handler rendering.InputHandler) (unregister func()) {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.disposed.Load() {
		return func() {}
	}
	remove := e.backend.CaptureInput(func(k rendering.Key) {
		e.Dispatch(func() { handler(k) })
	})
	id := e.inputID
	e.inputID++
	e.inputs[id] = remove

	var once sync.Once
	return func() {
		once.Do(func() {
			e.lifeMu.Lock()
			_, ok := e.inputs[id]
			delete(e.inputs, id)
			e.lifeMu.Unlock()
			if ok {
				remove()
			}
		})
	}
}

// Frame runs one frame now. Dispatched work always runs; the render pass
// runs only if the engine is visible and dirty. On error the pass is
// abandoned, the previous output stays visible and the error is reported.
func (e *Engine) Frame() (err error) {
	if e.disposed.Load() {
		return errors.New("engine.Frame", errors.KindUsage, errors.ErrDisposed)
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.beginFrame()
	defer e.endFrame()
	defer func() {
		if r := recover(); r != nil {
			pe := &errors.PanicError{
				Op:         "engine.Frame",
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportPanic(pe)
			err = pe
		}
	}()

	start := time.Now()
	dispatched := e.drainDispatchQueue()
	for _, fn := range dispatched {
		fn()
	}
	renderStart := time.Now()

	if !e.visible.Load() || !e.dirty.Swap(false) {
		return nil
	}

	if err := e.root.Flush(); err != nil {
		e.report(err)
		return err
	}
	layoutStart := time.Now()
	if err := e.pipeline.Frame(e.root.Node()); err != nil {
		e.report(err)
		return err
	}
	end := time.Now()

	n := e.frames.Add(1)
	e.entries.Store(int64(e.pipeline.Len()))
	stats := e.pipeline.Stats()
	e.trace.Add(FrameSample{
		Frame:     n,
		Timestamp: start.UnixMilli(),
		FrameMs:   durationToMillis(end.Sub(start)),
		Phases: FramePhaseTimings{
			DispatchMs: durationToMillis(renderStart.Sub(start)),
			RenderMs:   durationToMillis(layoutStart.Sub(renderStart)),
			LayoutMs:   durationToMillis(end.Sub(layoutStart)),
		},
		Counts: FrameCounts{
			Hits:       stats.Hits,
			Misses:     stats.Misses,
			Evictions:  stats.Evictions,
			Entries:    e.pipeline.Len(),
			Dispatched: len(dispatched),
		},
	}, end.Sub(start))
	e.logger.Debug("frame", "n", n, "hits", stats.Hits, "misses", stats.Misses,
		"evictions", stats.Evictions, "took", end.Sub(start))
	return nil
}

func (e *Engine) beginFrame() {
	e.deferMu.Lock()
	e.framing = true
	e.deferMu.Unlock()
}

// endFrame runs work deferred while the frame was running. It holds frameMu.
func (e *Engine) endFrame() {
	for {
		e.deferMu.Lock()
		queue := e.deferred
		e.deferred = nil
		if len(queue) == 0 {
			e.framing = false
			e.deferMu.Unlock()
			return
		}
		e.deferMu.Unlock()
		for _, fn := range queue {
			fn()
		}
	}
}

// onLoop runs fn with exclusive access to the tree: immediately when no
// frame is running, otherwise right after the current frame.
func (e *Engine) onLoop(fn func()) {
	e.deferMu.Lock()
	if e.framing {
		e.deferred = append(e.deferred, fn)
		e.deferMu.Unlock()
		return
	}
	e.deferMu.Unlock()

	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	fn()
}

// inspect runs fn like onLoop and waits for it. It must not be called from
// the frame goroutine.
func (e *Engine) inspect(fn func()) {
	done := make(chan struct{})
	e.onLoop(func() {
		defer close(done)
		fn()
	})
	<-done
}

// clearOutput blanks the backend and writes buffered output out now.
func (e *Engine) clearOutput() {
	e.backend.Clear()
	if f, ok := e.backend.(rendering.Flusher); ok {
		if err := f.Flush(); err != nil {
			errors.Report(errors.New("engine.Clear", errors.KindRender, err))
		}
	}
}

func (e *Engine) report(err error) {
	var le *errors.LoomError
	if !stderrors.As(err, &le) {
		le = errors.New("engine.Frame", errors.KindUnknown, err)
	}
	errors.Report(le)
}

func (e *Engine) startTimerLocked() {
	t := e.newTicker(time.Second / time.Duration(e.fps))
	quit := make(chan struct{})
	e.ticker, e.quit = t, quit
	go e.loop(t, quit)
}

func (e *Engine) stopTimerLocked() {
	if e.ticker == nil {
		return
	}
	close(e.quit)
	e.ticker.Stop()
	e.ticker, e.quit = nil, nil
}

func (e *Engine) loop(t Ticker, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-t.C():
			select {
			case <-quit:
				return
			default:
			}
			if err := e.Frame(); err != nil {
				e.logger.Debug("frame abandoned", "err", err)
			}
		}
	}
}

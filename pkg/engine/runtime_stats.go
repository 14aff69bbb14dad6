package engine

import (
	"runtime"
	"time"
)

const (
	runtimeSampleIntervalDefault = 5 * time.Second
	runtimeSampleWindowDefault   = 60 * time.Second
	runtimeSampleMinInterval     = 10 * time.Millisecond
	runtimeSampleMaxSamples      = 120
)

// RuntimeSample is a point-in-time view of the process and the engine:
// heap and GC figures next to the frame count, cache size and queued work.
type RuntimeSample struct {
	Timestamp  int64 `json:"ts"`
	Goroutines int   `json:"goroutines"`

	HeapAlloc   uint64 `json:"heapAlloc"`
	HeapInuse   uint64 `json:"heapInuse"`
	NumGC       uint32 `json:"numGC"`
	LastPauseNs uint64 `json:"lastPauseNs"`

	Frames       uint64 `json:"frames"`
	CacheEntries int    `json:"cacheEntries"`
	Dispatch     int    `json:"dispatch"`
	Running      bool   `json:"running"`
	Visible      bool   `json:"visible"`
}

// RuntimeSampleBuffer keeps the samples taken over a sliding window.
type RuntimeSampleBuffer struct {
	samples  *ring[RuntimeSample]
	interval time.Duration
	window   time.Duration
}

// NewRuntimeSampleBuffer sizes a buffer to hold window worth of samples taken
// every interval, capped at runtimeSampleMaxSamples. The window is rounded to
// what the buffer can hold.
func NewRuntimeSampleBuffer(window, interval time.Duration) *RuntimeSampleBuffer {
	interval = normalizeRuntimeInterval(interval)
	if window <= 0 {
		window = runtimeSampleWindowDefault
	}
	n := min(max(int(window/interval), 1), runtimeSampleMaxSamples)
	return &RuntimeSampleBuffer{
		samples:  newRing[RuntimeSample](n),
		interval: interval,
		window:   time.Duration(n) * interval,
	}
}

// Interval returns the sampling interval.
func (b *RuntimeSampleBuffer) Interval() time.Duration { return b.interval }

// Window returns the history covered by a full buffer.
func (b *RuntimeSampleBuffer) Window() time.Duration { return b.window }

// Add stores a sample, dropping the oldest once full.
func (b *RuntimeSampleBuffer) Add(sample RuntimeSample) { b.samples.add(sample) }

// Snapshot returns the samples oldest first.
func (b *RuntimeSampleBuffer) Snapshot() []RuntimeSample { return b.samples.snapshot() }

func normalizeRuntimeInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		return runtimeSampleIntervalDefault
	}
	return max(interval, runtimeSampleMinInterval)
}

// runtimeSample reads process stats and the engine counters. It does not
// touch the tree, so it is safe from any goroutine.
func (e *Engine) runtimeSample() RuntimeSample {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var lastPause uint64
	if mem.NumGC > 0 {
		lastPause = mem.PauseNs[(mem.NumGC+255)%256]
	}

	e.dispatchMu.Lock()
	queued := len(e.dispatchQueue)
	e.dispatchMu.Unlock()

	return RuntimeSample{
		Timestamp:    time.Now().UnixMilli(),
		Goroutines:   runtime.NumGoroutine(),
		HeapAlloc:    mem.HeapAlloc,
		HeapInuse:    mem.HeapInuse,
		NumGC:        mem.NumGC,
		LastPauseNs:  lastPause,
		Frames:       e.frames.Load(),
		CacheEntries: int(e.entries.Load()),
		Dispatch:     queued,
		Running:      e.Running(),
		Visible:      e.visible.Load(),
	}
}

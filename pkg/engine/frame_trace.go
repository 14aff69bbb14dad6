package engine

import (
	"sync/atomic"
	"time"
)

const (
	frameTraceSamplesDefault   = 240
	defaultFrameTraceThreshold = 16667 * time.Microsecond
)

// FramePhaseTimings captures time spent in each frame phase (ms).
type FramePhaseTimings struct {
	DispatchMs float64 `json:"dispatchMs"`
	RenderMs   float64 `json:"renderMs"`
	LayoutMs   float64 `json:"layoutMs"`
}

// FrameCounts captures per-frame cache workload.
type FrameCounts struct {
	Hits       int `json:"hits"`
	Misses     int `json:"misses"`
	Evictions  int `json:"evictions"`
	Entries    int `json:"entries"`
	Dispatched int `json:"dispatched"`
}

// FrameSample is a single executed frame.
type FrameSample struct {
	Frame     uint64            `json:"frame"`
	Timestamp int64             `json:"ts"`
	FrameMs   float64           `json:"frameMs"`
	Phases    FramePhaseTimings `json:"phases"`
	Counts    FrameCounts       `json:"counts"`
}

// FrameTimeline is a chronological view of recent frames.
type FrameTimeline struct {
	Samples     []FrameSample `json:"samples"`
	SlowFrames  int           `json:"slowFrames"`
	ThresholdMs float64       `json:"thresholdMs"`
}

// FrameTraceBuffer stores recent frame samples and counts slow frames.
type FrameTraceBuffer struct {
	samples   *ring[FrameSample]
	slow      atomic.Int64
	threshold time.Duration
}

// NewFrameTraceBuffer creates a buffer keeping capacity frames. Frames longer
// than threshold count as slow.
func NewFrameTraceBuffer(capacity int, threshold time.Duration) *FrameTraceBuffer {
	if capacity <= 0 {
		capacity = frameTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultFrameTraceThreshold
	}
	return &FrameTraceBuffer{samples: newRing[FrameSample](capacity), threshold: threshold}
}

// Capacity returns the buffer capacity.
func (b *FrameTraceBuffer) Capacity() int { return b.samples.capacity() }

// Add records a frame sample.
func (b *FrameTraceBuffer) Add(sample FrameSample, frameDuration time.Duration) {
	b.samples.add(sample)
	if frameDuration > b.threshold {
		b.slow.Add(1)
	}
}

// Snapshot returns the samples oldest first with the slow frame count.
func (b *FrameTraceBuffer) Snapshot() FrameTimeline {
	return FrameTimeline{
		Samples:     b.samples.snapshot(),
		SlowFrames:  int(b.slow.Load()),
		ThresholdMs: durationToMillis(b.threshold),
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package engine

import "sync"

// ring keeps the last len(buf) values added. Safe for concurrent use.
type ring[T any] struct {
	mu    sync.RWMutex
	buf   []T
	next  int
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, max(capacity, 1))}
}

func (r *ring[T]) capacity() int { return len(r.buf) }

func (r *ring[T]) add(v T) {
	r.mu.Lock()
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	r.count = min(r.count+1, len(r.buf))
	r.mu.Unlock()
}

// snapshot returns the values oldest first, or nil when empty.
func (r *ring[T]) snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		return nil
	}
	out := make([]T, 0, r.count)
	if r.count == len(r.buf) {
		out = append(out, r.buf[r.next:]...)
		return append(out, r.buf[:r.next]...)
	}
	return append(out, r.buf[:r.count]...)
}

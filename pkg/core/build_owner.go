package core

import (
	"slices"
	"sync"

	"github.com/go-drift/loom/pkg/node"
)

// BuildOwner tracks components that need re-rendering.
type BuildOwner struct {
	dirty    []*Component
	dirtySet map[*Component]bool
	mu       sync.Mutex
	pass     uint64

	// OnNeedsFrame is called when a component is newly scheduled, signalling
	// the scheduler that the next tick has work to do.
	OnNeedsFrame func()

	// OnInvalidate is called with a component's node whenever its content
	// changes, so cached output for the node and its ancestors can be evicted.
	OnInvalidate func(*node.Node)
}

// NewBuildOwner creates a new BuildOwner.
func NewBuildOwner() *BuildOwner {
	return &BuildOwner{}
}

// ScheduleRender marks a component as needing a render on the next flush.
func (b *BuildOwner) ScheduleRender(c *Component) {
	added := func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.dirtySet[c] {
			return false
		}
		if b.dirtySet == nil {
			b.dirtySet = make(map[*Component]bool)
		}
		b.dirtySet[c] = true
		b.dirty = append(b.dirty, c)
		return true
	}()

	// The state change makes the cached output of this subtree stale now,
	// even though the render itself waits for the next pass.
	b.invalidate(c.host)
	if added && b.OnNeedsFrame != nil {
		b.OnNeedsFrame()
	}
}

// NeedsWork reports whether any component is scheduled.
func (b *BuildOwner) NeedsWork() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirty) > 0
}

// Pass returns the number of flushes started so far.
func (b *BuildOwner) Pass() uint64 {
	return b.pass
}

// FlushRender renders the components scheduled before the call, shallowest
// first. Components scheduled while flushing wait for the next flush. A
// component already rendered in this pass through its parent is skipped.
//
// On error the pass stops. Components not reached stay scheduled and
// OnNeedsFrame fires again so the next tick picks them up; the failing
// component itself is not retried.
func (b *BuildOwner) FlushRender() error {
	b.mu.Lock()
	dirty := b.dirty
	b.dirty = nil
	clear(b.dirtySet)
	b.mu.Unlock()

	if len(dirty) == 0 {
		return nil
	}
	b.pass++

	slices.SortStableFunc(dirty, func(a, b *Component) int {
		return a.depth - b.depth
	})

	for i, c := range dirty {
		if c.disposed || !c.dirty || c.lastPass == b.pass {
			continue
		}
		if err := c.render(); err != nil {
			requeued := false
			for _, rest := range dirty[i+1:] {
				if !rest.disposed && rest.dirty && b.requeue(rest) {
					requeued = true
				}
			}
			if requeued && b.OnNeedsFrame != nil {
				b.OnNeedsFrame()
			}
			return err
		}
	}
	return nil
}

func (b *BuildOwner) requeue(c *Component) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirtySet[c] {
		return false
	}
	if b.dirtySet == nil {
		b.dirtySet = make(map[*Component]bool)
	}
	b.dirtySet[c] = true
	b.dirty = append(b.dirty, c)
	return true
}

// forget drops a torn-down component from the schedule.
func (b *BuildOwner) forget(c *Component) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirtySet[c] {
		return
	}
	delete(b.dirtySet, c)
	b.dirty = slices.DeleteFunc(b.dirty, func(d *Component) bool { return d == c })
}

func (b *BuildOwner) invalidate(n *node.Node) {
	if b.OnInvalidate != nil && n != nil {
		b.OnInvalidate(n)
	}
}

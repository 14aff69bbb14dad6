// Package layout resolves node bounds top-down and memoizes each node's draw
// batch under the ParentBounds it was computed with.
package layout

import (
	stderrors "errors"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

// Stats describes the most recent pass.
type Stats struct {
	// Hits counts nodes served from the cache. A hit on a box covers its
	// whole subtree.
	Hits int
	// Misses counts nodes whose batch was recomputed.
	Misses int
	// Evictions counts entries dropped since the previous pass started,
	// through invalidation or sweeping.
	Evictions int
}

type entry struct {
	pb    bounds.ParentBounds
	res   bounds.Resolved
	batch Batch
	// own holds the primitives drawn for this node itself, not its children.
	own []rendering.Handle
}

// Pipeline is the render cache between the node tree and a backend.
//
// A Pipeline is not safe for concurrent use. The engine calls it from its
// loop goroutine only.
type Pipeline struct {
	backend rendering.Backend
	entries map[node.ID]*entry

	// parents maps every node reached by the last pass to the node it was
	// drawn under. Invalidation walks these links upward.
	parents map[node.ID]node.ID
	live    map[node.ID]node.ID

	stats   Stats
	evicted int
	// retired primitives are still on screen until the next Present.
	retired []rendering.Handle
}

// NewPipeline creates an empty cache in front of backend.
func NewPipeline(backend rendering.Backend) *Pipeline {
	return &Pipeline{
		backend: backend,
		entries: make(map[node.ID]*entry),
		parents: make(map[node.ID]node.ID),
	}
}

// Backend returns the backend the pipeline draws with.
func (p *Pipeline) Backend() rendering.Backend { return p.backend }

// Stats returns counters for the most recent pass.
func (p *Pipeline) Stats() Stats { return p.stats }

// Len returns the number of cached entries.
func (p *Pipeline) Len() int { return len(p.entries) }

// Cached returns the bounds n resolved to when its entry was computed.
func (p *Pipeline) Cached(n *node.Node) (bounds.Resolved, bool) {
	e, ok := p.entries[n.ID()]
	if !ok {
		return bounds.Resolved{}, false
	}
	return e.res, true
}

// Render resolves root against the backend's root box and returns its batch.
// Nothing is presented.
func (p *Pipeline) Render(root *node.Node) (Batch, error) {
	return p.RenderWithin(root, bounds.ParentBounds{Box: p.backend.RootBoundingBox()})
}

// RenderWithin is Render against an explicit root context.
func (p *Pipeline) RenderWithin(root *node.Node, pb bounds.ParentBounds) (Batch, error) {
	p.stats = Stats{Evictions: p.evicted}
	p.evicted = 0
	p.live = make(map[node.ID]node.ID, len(p.parents))
	if root == nil || !root.Visible() {
		return Batch{}, nil
	}
	res, err := root.Bounds()(pb)
	if err != nil {
		return nil, wrap(root, err)
	}
	return p.render(root, 0, pb, res)
}

// Frame renders root and, only if the whole pass succeeded, replaces the
// backend's visible output with the new batch. A failed pass leaves the
// previous frame on screen.
func (p *Pipeline) Frame(root *node.Node) error {
	batch, err := p.Render(root)
	if err != nil {
		return err
	}
	p.backend.Clear()
	if err := p.backend.Present(batch.Handles()); err != nil {
		return errors.New("layout.Frame", errors.KindRender, err)
	}
	p.sweep()
	p.release()
	return nil
}

func (p *Pipeline) render(n *node.Node, parent node.ID, pb bounds.ParentBounds, res bounds.Resolved) (Batch, error) {
	if e, ok := p.entries[n.ID()]; ok && e.pb.Equal(pb) {
		p.stats.Hits++
		p.visitTree(n, parent)
		return e.batch, nil
	}
	p.stats.Misses++
	p.visit(n, parent)

	var batch Batch
	var own []rendering.Handle
	switch n.Kind() {
	case node.KindHost:
		child := n.Child()
		if child == nil {
			batch = Batch{}
			break
		}
		b, err := p.render(child, n.ID(), pb, res)
		if err != nil {
			return nil, err
		}
		batch = b
	case node.KindBox:
		b, err := p.renderBox(n, res)
		if err != nil {
			return nil, err
		}
		batch = b
	default:
		handles, err := paintLeaf(p.backend, n, res.Box)
		if err != nil {
			return nil, wrap(n, err)
		}
		batch = make(Batch, len(handles))
		for _, h := range handles {
			batch.Put(res.Box.Z, h)
		}
		own = handles
	}

	if old, ok := p.entries[n.ID()]; ok {
		p.retired = append(p.retired, old.own...)
	}
	p.entries[n.ID()] = &entry{pb: pb, res: res, batch: batch, own: own}
	return batch, nil
}

func (p *Pipeline) renderBox(n *node.Node, res bounds.Resolved) (Batch, error) {
	arr, err := bounds.NewArranger(res.Content, n.Sublayout())
	if err != nil {
		return nil, wrap(n, err)
	}
	batch := Batch{}
	for _, child := range n.Children() {
		if !child.Visible() {
			continue
		}
		cpb, cres, err := arr.Next(child.Bounds())
		if err != nil {
			return nil, wrap(child, err)
		}
		b, err := p.render(child, n.ID(), cpb, cres)
		if err != nil {
			return nil, err
		}
		batch.Merge(b)
	}
	return batch, nil
}

func (p *Pipeline) visit(n *node.Node, parent node.ID) {
	p.live[n.ID()] = parent
	p.parents[n.ID()] = parent
}

func (p *Pipeline) visitTree(n *node.Node, parent node.ID) {
	p.visit(n, parent)
	for _, c := range n.Children() {
		p.visitTree(c, n.ID())
	}
}

// wrap attaches the failing node to err once; errors already wrapped by a
// deeper node pass through unchanged.
func wrap(n *node.Node, err error) error {
	var le *errors.LoomError
	if stderrors.As(err, &le) {
		return err
	}
	kind := errors.Classify(err)
	if kind == errors.KindUnknown {
		kind = errors.KindRender
	}
	e := errors.New("layout.Render", kind, err)
	e.Node = n.Label()
	return e
}

// Invalidate evicts n and every ancestor it was last drawn under. Siblings
// and descendants keep their entries. A node never drawn walks up from
// n.Parent().
func (p *Pipeline) Invalidate(n *node.Node) {
	if n == nil {
		return
	}
	p.evict(n.ID())
	id, ok := p.parents[n.ID()]
	if !ok {
		id = n.Parent()
	}
	for id != 0 {
		p.evict(id)
		if id, ok = p.parents[id]; !ok {
			return
		}
	}
}

// InvalidateAll empties the cache.
func (p *Pipeline) InvalidateAll() {
	for id := range p.entries {
		p.evict(id)
	}
}

// Release empties the cache and hands every primitive back to the backend.
// Call it once the output is no longer visible.
func (p *Pipeline) Release() {
	p.InvalidateAll()
	p.parents = make(map[node.ID]node.ID)
	p.release()
}

func (p *Pipeline) evict(id node.ID) {
	e, ok := p.entries[id]
	if !ok {
		return
	}
	delete(p.entries, id)
	p.retired = append(p.retired, e.own...)
	p.evicted++
}

// sweep drops entries for nodes the last pass did not reach.
func (p *Pipeline) sweep() {
	for id := range p.entries {
		if _, ok := p.live[id]; !ok {
			p.evict(id)
		}
	}
	p.parents = p.live
	p.live = nil
}

func (p *Pipeline) release() {
	r, ok := p.backend.(rendering.Releaser)
	if ok {
		for _, h := range p.retired {
			r.Release(h)
		}
	}
	p.retired = nil
}

package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/node"
)

// Def is a component definition. Its pointer is the component's function
// identity: two invocations match across renders only if they use the same
// *Def and the same key.
type Def[P any] struct {
	name   string
	render func(*Ctx, P) *node.Node
}

// Define creates a component definition. Define once, at package level or in
// setup code, and reuse the returned pointer.
func Define[P any](name string, render func(*Ctx, P) *node.Node) *Def[P] {
	return &Def[P]{name: name, render: render}
}

// Name returns the definition name.
func (d *Def[P]) Name() string { return d.name }

type identity struct {
	def any
	key string
}

// Component is a persistent instance producing a node subtree across renders.
type Component struct {
	id     identity
	name   string
	owner  *BuildOwner
	parent *Component
	depth  int

	slots       []*slot
	cursor      int
	constructed bool
	invoke      func(*Ctx) *node.Node
	props       any
	// failed is set when the last render returned an error.
	failed bool

	host     *node.Node
	children []*Component

	dirty     bool
	disposed  bool
	lastPass  uint64
	disposers []func()
	effects   []*slot
}

func newComponent(id identity, name string, owner *BuildOwner, parent *Component) *Component {
	c := &Component{
		id:    id,
		name:  name,
		owner: owner,
		host:  node.Host(id.key),
	}
	if parent != nil {
		c.parent = parent
		c.depth = parent.depth + 1
	}
	return c
}

// Name returns the definition name.
func (c *Component) Name() string { return c.name }

// Key returns the invocation key, empty if none was given.
func (c *Component) Key() string { return c.id.key }

// Node returns the component's materialized node. Its identity is stable for
// the component's lifetime; its content follows the latest render.
func (c *Component) Node() *node.Node { return c.host }

// Children returns the child components in invocation order.
func (c *Component) Children() []*Component { return c.children }

// Depth returns the distance from the root.
func (c *Component) Depth() int { return c.depth }

// Slots returns the number of hook slots bound so far.
func (c *Component) Slots() int { return len(c.slots) }

// Disposed reports whether the component was torn down.
func (c *Component) Disposed() bool { return c.disposed }

// MarkNeedsRender schedules the component for one re-render. Calls on a
// disposed component are ignored; repeated calls before the next pass
// collapse into one.
func (c *Component) MarkNeedsRender() {
	if c.disposed || c.dirty {
		return
	}
	c.dirty = true
	if c.owner != nil {
		c.owner.ScheduleRender(c)
	}
}

// OnDispose registers cleanup to run when the component is torn down.
// Cleanups run in reverse registration order.
func (c *Component) OnDispose(cleanup func()) {
	if cleanup == nil {
		return
	}
	if c.disposed {
		cleanup()
		return
	}
	c.disposers = append(c.disposers, cleanup)
}

// renderAbort carries a child's render error out through its parent body.
type renderAbort struct {
	err error
}

// render re-runs the component body and reconciles its children.
func (c *Component) render() error {
	c.dirty = false
	if c.owner != nil {
		c.lastPass = c.owner.pass
	}

	x := &Ctx{c: c, prev: make(map[identity][]*Component, len(c.children))}
	for _, child := range c.children {
		x.prev[child.id] = append(x.prev[child.id], child)
	}
	c.cursor = 0
	c.effects = c.effects[:0]

	out, err := c.safeRender(x)
	if err == nil && c.constructed && c.cursor != len(c.slots) {
		err = &errors.HookError{
			Component: c.name,
			Index:     c.cursor,
			Want:      fmt.Sprintf("%d slots", len(c.slots)),
			Got:       fmt.Sprintf("%d slots", c.cursor),
		}
	}
	if err != nil {
		for _, child := range x.next {
			if !x.matched[child] {
				child.teardown()
			}
		}
		if !c.constructed {
			c.slots = nil
		}
		c.failed = true
		return err
	}
	c.constructed = true
	c.failed = false

	for _, stale := range x.prev {
		for _, child := range stale {
			child.teardown()
		}
	}
	c.children = x.next
	c.host.Adopt(out)
	if c.owner != nil {
		c.owner.invalidate(c.host)
	}
	c.runEffects()
	return nil
}

// safeRender runs the body with panic recovery. Hook violations and child
// failures surface as their own errors; other panics become BuildErrors.
func (c *Component) safeRender(x *Ctx) (out *node.Node, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch v := r.(type) {
		case renderAbort:
			err = v.err
		case *errors.HookError:
			err = v
		default:
			err = &errors.BuildError{
				Component:  c.name,
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
		}
	}()
	if c.invoke == nil {
		return nil, nil
	}
	return c.invoke(x), nil
}

func (c *Component) runEffects() {
	for _, s := range c.effects {
		e := s.value.(*effect)
		e.deps, e.pending = e.pending, nil
		if e.cleanup != nil {
			e.cleanup()
			e.cleanup = nil
		}
		if e.setup != nil {
			e.cleanup = e.setup()
		}
	}
	c.effects = c.effects[:0]
}

// teardown disposes the component and its descendants, children first.
func (c *Component) teardown() {
	if c.disposed {
		return
	}
	for _, child := range c.children {
		child.teardown()
	}
	c.children = nil
	c.disposed = true
	c.dirty = false

	for i := len(c.slots) - 1; i >= 0; i-- {
		if e, ok := c.slots[i].value.(*effect); ok && e.cleanup != nil {
			e.cleanup()
			e.cleanup = nil
		}
	}
	for i := len(c.disposers) - 1; i >= 0; i-- {
		c.disposers[i]()
	}
	c.disposers = nil
	if c.owner != nil {
		c.owner.forget(c)
	}
}

// Ctx is handed to a component body while it renders. It binds hooks to the
// component's slots and reconciles child invocations.
type Ctx struct {
	c       *Component
	prev    map[identity][]*Component
	next    []*Component
	matched map[*Component]bool
	keys    map[identity]bool
}

// Component returns the component being rendered.
func (x *Ctx) Component() *Component { return x.c }

// Rerender schedules the component for another render on the next pass.
func (x *Ctx) Rerender() { x.c.MarkNeedsRender() }

// OnDispose registers cleanup on the component being rendered.
func (x *Ctx) OnDispose(cleanup func()) { x.c.OnDispose(cleanup) }

// take pops the first previous-pass instance with the given identity.
func (x *Ctx) take(id identity) *Component {
	list := x.prev[id]
	if len(list) == 0 {
		return nil
	}
	child := list[0]
	if len(list) == 1 {
		delete(x.prev, id)
	} else {
		x.prev[id] = list[1:]
	}
	if x.matched == nil {
		x.matched = make(map[*Component]bool)
	}
	x.matched[child] = true
	return child
}

// Mount invokes def as a child of the component being rendered and returns
// the child's node. Instances match across renders by definition and call
// order; use MountKeyed when siblings of one definition can reorder.
func Mount[P any](x *Ctx, def *Def[P], props P) *node.Node {
	return MountKeyed(x, def, "", props)
}

// MountKeyed is Mount with an explicit key. The identity of the child is the
// pair (def, key).
//
// A matched child that is not scheduled and receives props equal to the
// previous ones keeps its output without re-running its body. Props holding
// funcs never compare equal.
func MountKeyed[P any](x *Ctx, def *Def[P], key string, props P) *node.Node {
	id := identity{def: def, key: key}
	if key != "" {
		if x.keys == nil {
			x.keys = make(map[identity]bool)
		}
		if x.keys[id] {
			errors.Warn("core.Mount", def.name+"["+key+"]", "duplicate key among siblings; instances match in call order")
		}
		x.keys[id] = true
	}

	child := x.take(id)
	if child == nil {
		child = newComponent(id, def.name, x.c.owner, x.c)
	}
	x.next = append(x.next, child)
	if child.constructed && !child.dirty && !child.failed && propsEqual(child.props, props) {
		return child.host
	}
	child.invoke = func(cx *Ctx) *node.Node {
		return def.render(cx, props)
	}
	if err := child.render(); err != nil {
		panic(renderAbort{err: err})
	}
	child.props = props
	return child.host
}

// propsEqual compares with == when the dynamic type allows it and falls back
// to reflect.DeepEqual otherwise.
func propsEqual(a, b any) (equal bool) {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta == nil {
		return true
	}
	if ta.Comparable() {
		// Interface fields can still hold uncomparable values.
		defer func() {
			if recover() != nil {
				equal = reflect.DeepEqual(a, b)
			}
		}()
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

package core

import (
	"fmt"
	"reflect"

	"github.com/go-drift/loom/pkg/errors"
)

type hookKind int

const (
	hookState hookKind = iota
	hookFastState
	hookRef
	hookEffect
	hookMemo
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookFastState:
		return "UseFastState"
	case hookRef:
		return "UseRef"
	case hookEffect:
		return "UseEffect"
	case hookMemo:
		return "UseMemo"
	default:
		return fmt.Sprintf("hook(%d)", int(k))
	}
}

type slot struct {
	kind  hookKind
	value any
}

// bind returns the next slot, creating it on the construction pass. On later
// passes the slot at the cursor must have been created by the same hook with
// the same value type; anything else is a hook order violation.
func (x *Ctx) bind(kind hookKind, init func() any) *slot {
	c := x.c
	i := c.cursor
	c.cursor++
	if !c.constructed {
		s := &slot{kind: kind, value: init()}
		c.slots = append(c.slots, s)
		return s
	}
	if i >= len(c.slots) {
		panic(&errors.HookError{
			Component: c.name,
			Index:     i,
			Want:      fmt.Sprintf("%d slots", len(c.slots)),
			Got:       kind.String(),
		})
	}
	s := c.slots[i]
	if s.kind != kind {
		panic(&errors.HookError{Component: c.name, Index: i, Want: s.kind.String(), Got: kind.String()})
	}
	return s
}

func slotValue[V any](x *Ctx, s *slot) V {
	v, ok := s.value.(V)
	if !ok {
		var want V
		panic(&errors.HookError{
			Component: x.c.name,
			Index:     x.c.cursor - 1,
			Want:      fmt.Sprintf("%s of %T", s.kind, s.value),
			Got:       fmt.Sprintf("%s of %T", s.kind, want),
		})
	}
	return v
}

// State is a state cell. Every Set or Update schedules a re-render of the
// owning component.
type State[T any] struct {
	owner *Component
	value T
}

// Get returns the current value.
func (s *State[T]) Get() T { return s.value }

// Set replaces the value and schedules a re-render.
func (s *State[T]) Set(v T) {
	s.value = v
	s.owner.MarkNeedsRender()
}

// Update mutates the value in place and schedules a re-render. Use it for
// nested changes to structs, slices or maps.
func (s *State[T]) Update(mutate func(*T)) {
	mutate(&s.value)
	s.owner.MarkNeedsRender()
}

// UseState binds a state cell to the next hook slot. initial is only used on
// the construction pass.
func UseState[T any](x *Ctx, initial T) *State[T] {
	s := x.bind(hookState, func() any {
		return &State[T]{owner: x.c, value: initial}
	})
	return slotValue[*State[T]](x, s)
}

type fastState[T any] struct {
	owner *Component
	value T
	get   func() T
	set   func(T)
}

// UseFastState binds a getter/setter pair. Mutating a value obtained from the
// getter does not schedule anything; only the setter does, and only when the
// new value is not the same reference (or equal comparable value) as the
// current one.
func UseFastState[T any](x *Ctx, initial T) (get func() T, set func(T)) {
	s := x.bind(hookFastState, func() any {
		fs := &fastState[T]{owner: x.c, value: initial}
		fs.get = func() T { return fs.value }
		fs.set = func(v T) {
			if sameRef(fs.value, v) {
				return
			}
			fs.value = v
			fs.owner.MarkNeedsRender()
		}
		return fs
	})
	fs := slotValue[*fastState[T]](x, s)
	return fs.get, fs.set
}

// Ref is a mutable cell that never schedules a re-render. It keeps values
// current for callbacks that run outside the render pass.
type Ref[T any] struct {
	value T
}

// Get returns the current value.
func (r *Ref[T]) Get() T { return r.value }

// Set replaces the value without scheduling a re-render.
func (r *Ref[T]) Set(v T) { r.value = v }

// UseRef binds a Ref to the next hook slot.
func UseRef[T any](x *Ctx, initial T) *Ref[T] {
	s := x.bind(hookRef, func() any {
		return &Ref[T]{value: initial}
	})
	return slotValue[*Ref[T]](x, s)
}

type effect struct {
	setup   func() func()
	cleanup func()
	// deps is committed from pending once the render succeeds.
	deps    []any
	pending []any
}

// UseEffect runs setup after the render that constructs the slot, and again
// after any render whose deps differ from the previous ones. The function
// returned by setup (may be nil) runs before the next setup and when the
// component is torn down. With no deps, setup runs once.
func UseEffect(x *Ctx, setup func() func(), deps ...any) {
	fresh := false
	s := x.bind(hookEffect, func() any {
		fresh = true
		return &effect{}
	})
	e := slotValue[*effect](x, s)
	if fresh || (len(deps) > 0 && !depsEqual(e.deps, deps)) {
		e.setup = setup
		e.pending = deps
		x.c.effects = append(x.c.effects, s)
	}
}

type memo[T any] struct {
	value T
	deps  []any
}

// UseMemo returns compute() from the construction pass, recomputing whenever
// deps differ from the previous render.
func UseMemo[T any](x *Ctx, compute func() T, deps ...any) T {
	fresh := false
	s := x.bind(hookMemo, func() any {
		fresh = true
		return &memo[T]{}
	})
	m := slotValue[*memo[T]](x, s)
	if fresh || !depsEqual(m.deps, deps) {
		m.value = compute()
		m.deps = deps
	}
	return m.value
}

func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// sameRef reports whether a and b are the same reference. Pointers, maps,
// slices, channels and funcs compare by address; comparable values by ==.
func sameRef(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return false
}

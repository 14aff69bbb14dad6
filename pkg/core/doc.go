// Package core keeps the persistent component tree and binds per-component
// hook state across renders.
//
// A component is defined once with Define and invoked from a parent body with
// Mount. On every render of the parent, each invocation is matched to the
// previous instance with the same identity (definition pointer plus key);
// matched instances keep their hook slots, unmatched previous instances are
// torn down and unmatched new invocations start with empty slots.
//
//	var Counter = core.Define("Counter", func(x *core.Ctx, label string) *node.Node {
//	    count := core.UseState(x, 0)
//	    return node.Text(node.Props{}, fmt.Sprintf("%s: %d", label, count.Get()), rendering.WrapNone)
//	})
//
//	var App = core.Define("App", func(x *core.Ctx, _ struct{}) *node.Node {
//	    return node.Box(node.Props{}, bounds.Sublayout{Direction: bounds.Vertical},
//	        core.MountKeyed(x, Counter, "a", "first"),
//	        core.MountKeyed(x, Counter, "b", "second"),
//	    )
//	})
//
// # Hooks
//
// Hooks bind by call order. Slot N must be the same hook on every render of
// an instance; calling hooks conditionally is detected and reported as a
// *errors.HookError.
//
//   - UseState returns a cell whose Set and Update schedule a re-render.
//   - UseFastState returns a getter/setter pair; the setter skips scheduling
//     when the value is unchanged by reference.
//   - UseRef returns a cell that never schedules.
//   - UseEffect and UseMemo run or cache work keyed by dependencies.
//
// State setters are NOT thread-safe. From other goroutines, hand work to the
// engine with engine.Dispatch.
//
// # Scheduling
//
// Marking a component dirty queues it on the BuildOwner exactly once until the
// next flush. Renders triggered while a flush is running wait for the next
// one.
package core

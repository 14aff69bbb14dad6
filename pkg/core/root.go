package core

import (
	"fmt"

	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/node"
)

// Root owns the top-level component and its BuildOwner.
type Root struct {
	owner    *BuildOwner
	comp     *Component
	name     string
	check    func(props any) error
	setProps func(props any) error
	mounted  bool
}

// NewRoot prepares def as the root component with props. Nothing renders
// until the first Flush.
func NewRoot[P any](def *Def[P], props P) *Root {
	owner := NewBuildOwner()
	r := &Root{owner: owner, name: def.name}
	r.comp = newComponent(identity{def: def}, def.name, owner, nil)
	bind := func(p P) {
		r.comp.invoke = func(x *Ctx) *node.Node {
			return def.render(x, p)
		}
	}
	bind(props)
	r.check = func(props any) error {
		if _, ok := props.(P); !ok {
			var want P
			return errors.New("core.Root.SetProps", errors.KindUsage,
				fmt.Errorf("root %s takes %T, got %T", def.name, want, props))
		}
		return nil
	}
	r.setProps = func(props any) error {
		if err := r.check(props); err != nil {
			return err
		}
		bind(props.(P))
		return nil
	}
	return r
}

// Owner returns the BuildOwner that schedules renders for this tree.
func (r *Root) Owner() *BuildOwner { return r.owner }

// Component returns the root component instance.
func (r *Root) Component() *Component { return r.comp }

// Node returns the root's node.
func (r *Root) Node() *node.Node { return r.comp.host }

// Mounted reports whether the first render has completed.
func (r *Root) Mounted() bool { return r.mounted }

// CheckProps reports whether props has the root definition's props type.
func (r *Root) CheckProps(props any) error {
	return r.check(props)
}

// SetProps replaces the root props and schedules a render of the whole tree.
func (r *Root) SetProps(props any) error {
	if r.comp.disposed {
		return errors.New("core.Root.SetProps", errors.KindUsage, errors.ErrDisposed)
	}
	if err := r.setProps(props); err != nil {
		return err
	}
	r.comp.MarkNeedsRender()
	return nil
}

// Flush performs the first render, or on later calls renders every scheduled
// component. Work scheduled during the first render waits for the next Flush.
func (r *Root) Flush() error {
	if r.comp.disposed {
		return errors.New("core.Root.Flush", errors.KindUsage, errors.ErrDisposed)
	}
	if !r.mounted {
		r.owner.forget(r.comp)
		if err := r.comp.render(); err != nil {
			return err
		}
		r.mounted = true
		return nil
	}
	return r.owner.FlushRender()
}

// Dispose tears down the whole tree, running every cleanup.
func (r *Root) Dispose() {
	r.comp.teardown()
}

package bounds

import (
	"fmt"
	"strings"

	"github.com/go-drift/loom/pkg/errors"
)

// Value is a linear expression over the parent size and the preceding
// sibling: cells + percent% of parent [+ prev]. The zero Value is unset.
type Value struct {
	cells   float64
	percent float64
	prev    bool
	set     bool
}

// Cells returns an absolute value in cells (or pixels, per backend).
func Cells(n float64) Value {
	return Value{cells: n, set: true}
}

// Percent returns p percent of the parent's size along the same axis.
func Percent(p float64) Value {
	return Value{percent: p, set: true}
}

// Prev returns the preceding sibling's far edge (for positions) or size
// (for sizes) plus k.
func Prev(k float64) Value {
	return Value{cells: k, prev: true, set: true}
}

// Plus returns the sum of v and o.
func (v Value) Plus(o Value) Value {
	return Value{
		cells:   v.cells + o.cells,
		percent: v.percent + o.percent,
		prev:    v.prev || o.prev,
		set:     v.set || o.set,
	}
}

// IsSet reports whether v was given explicitly.
func (v Value) IsSet() bool { return v.set }

// UsesPrev reports whether v depends on the preceding sibling.
func (v Value) UsesPrev() bool { return v.prev }

func (v Value) String() string {
	if !v.set {
		return "unset"
	}
	var parts []string
	if v.prev {
		parts = append(parts, "prev")
	}
	if v.percent != 0 {
		parts = append(parts, fmt.Sprintf("%g%%", v.percent))
	}
	if v.cells != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%g", v.cells))
	}
	return strings.Join(parts, "+")
}

// resolve evaluates v against an axis of size parentSize. prevRef is the
// sibling-relative reference on the same axis, nil if there is no sibling.
func (v Value) resolve(parentSize float64, prevRef *float64) (float64, error) {
	out := v.cells + v.percent/100*parentSize
	if v.prev {
		if prevRef == nil {
			return 0, errors.ErrNoPrevSibling
		}
		out += *prevRef
	}
	return out, nil
}

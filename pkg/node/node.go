// Package node defines the immutable tree produced by one render pass.
//
// Nodes are created fresh by component bodies on every render. Each node has a
// process-unique ID that the render cache uses as its identity, and a
// non-owning parent ID used only to walk upward during invalidation. The
// owning direction is the children list.
package node

import (
	"fmt"
	"sync/atomic"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/rendering"
)

// ID identifies a node. Zero means none.
type ID uint64

var lastID atomic.Uint64

func nextID() ID {
	return ID(lastID.Add(1))
}

// Kind tags the node variant.
type Kind int

const (
	KindInvalid Kind = iota
	KindBox
	KindText
	KindColor
	KindBorder
	KindSource
	// KindHost is the stable node a component exposes to its parent. It lays
	// out and draws exactly like its single child.
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindText:
		return "text"
	case KindColor:
		return "color"
	case KindBorder:
		return "border"
	case KindSource:
		return "source"
	case KindHost:
		return "host"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BorderStyle selects border thickness.
type BorderStyle int

const (
	BorderLine BorderStyle = iota
	BorderThick
)

// Thickness returns the strip width in cells.
func (s BorderStyle) Thickness() float64 {
	if s == BorderThick {
		return 2
	}
	return 1
}

// Props are the fields shared by every variant.
type Props struct {
	// Bounds positions the node within its parent. Nil fills the parent.
	Bounds bounds.Resolver
	// Hidden nodes take no space and draw nothing.
	Hidden bool
	// Key is an optional stable identity among siblings.
	Key string
}

// Node is one rendered element.
type Node struct {
	id     ID
	parent ID
	kind   Kind
	props  Props

	children  []*Node
	sublayout bounds.Sublayout

	content string
	wrap    rendering.WrapMode
	color   rendering.Color
	border  BorderStyle
	path    string
}

func newNode(kind Kind, p Props) *Node {
	if p.Bounds == nil {
		p.Bounds = bounds.Fill()
	}
	return &Node{id: nextID(), kind: kind, props: p}
}

// Box groups children arranged by sub.
func Box(p Props, sub bounds.Sublayout, children ...*Node) *Node {
	n := newNode(KindBox, p)
	n.sublayout = sub
	n.children = make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n.id
		n.children = append(n.children, c)
	}
	if len(n.children) > 1 && sub.Direction == bounds.DirectionNone {
		errors.Warn("node.Box", n.Label(), "multiple children without direction; children overlap")
	}
	return n
}

// Text lays out content inside its box.
func Text(p Props, content string, wrap rendering.WrapMode) *Node {
	n := newNode(KindText, p)
	n.content = content
	n.wrap = wrap
	return n
}

// Color fills its box.
func Color(p Props, c rendering.Color) *Node {
	n := newNode(KindColor, p)
	n.color = c
	return n
}

// Border outlines its box.
func Border(p Props, style BorderStyle, c rendering.Color) *Node {
	n := newNode(KindBorder, p)
	n.border = style
	n.color = c
	return n
}

// Source draws the media file at path.
func Source(p Props, path string) *Node {
	n := newNode(KindSource, p)
	n.path = path
	return n
}

// Host returns an empty host node. Components own exactly one.
func Host(key string) *Node {
	return newNode(KindHost, Props{Key: key})
}

// Adopt replaces a host's child. The previous child, if any, is detached.
func (n *Node) Adopt(child *Node) {
	if n.kind != KindHost {
		panic(fmt.Sprintf("node: Adopt on %s", n.kind))
	}
	if len(n.children) == 1 && n.children[0] != child && n.children[0].parent == n.id {
		n.children[0].parent = 0
	}
	if child == nil {
		n.children = nil
		return
	}
	child.parent = n.id
	n.children = []*Node{child}
}

func (n *Node) ID() ID                      { return n.id }
func (n *Node) Parent() ID                  { return n.parent }
func (n *Node) Kind() Kind                  { return n.kind }
func (n *Node) Key() string                 { return n.props.Key }
func (n *Node) Children() []*Node           { return n.children }
func (n *Node) Sublayout() bounds.Sublayout { return n.sublayout }
func (n *Node) Content() string             { return n.content }
func (n *Node) Wrap() rendering.WrapMode    { return n.wrap }
func (n *Node) Color() rendering.Color      { return n.color }
func (n *Node) BorderStyle() BorderStyle    { return n.border }
func (n *Node) Path() string                { return n.path }

// Child returns a host's child, or nil.
func (n *Node) Child() *Node {
	if n.kind != KindHost || len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Visible reports whether the node takes part in layout. A host is visible
// when its child is.
func (n *Node) Visible() bool {
	if n.kind == KindHost {
		c := n.Child()
		return c != nil && c.Visible()
	}
	return !n.props.Hidden
}

// Bounds returns the resolver. For a host it is the child's resolver.
func (n *Node) Bounds() bounds.Resolver {
	if n.kind == KindHost {
		if c := n.Child(); c != nil {
			return c.Bounds()
		}
	}
	return n.props.Bounds
}

// Label is a short description for logs and errors.
func (n *Node) Label() string {
	if n.props.Key != "" {
		return fmt.Sprintf("%s[%s]#%d", n.kind, n.props.Key, n.id)
	}
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}

// Walk visits n and its descendants depth-first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

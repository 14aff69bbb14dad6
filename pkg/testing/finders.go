package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/loom/pkg/node"
)

// Finder locates nodes in a rendered tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *node.Node) []*node.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*node.Node
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *node.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.description()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *node.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *node.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.description()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*node.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type predicateFinder struct {
	match func(*node.Node) bool
	desc  string
}

func (f *predicateFinder) Evaluate(root *node.Node) []*node.Node {
	return collectMatches(root, f.match)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByKind matches nodes of kind k.
func ByKind(k node.Kind) Finder {
	return &predicateFinder{
		match: func(n *node.Node) bool { return n.Kind() == k },
		desc:  fmt.Sprintf("ByKind(%s)", k),
	}
}

// ByKey matches nodes with the given key, including component hosts.
func ByKey(key string) Finder {
	return &predicateFinder{
		match: func(n *node.Node) bool { return n.Key() == key },
		desc:  fmt.Sprintf("ByKey(%q)", key),
	}
}

// ByText matches text nodes whose content equals text exactly.
func ByText(text string) Finder {
	return &predicateFinder{
		match: func(n *node.Node) bool { return n.Kind() == node.KindText && n.Content() == text },
		desc:  fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining matches text nodes whose content contains substr.
func ByTextContaining(substr string) Finder {
	return &predicateFinder{
		match: func(n *node.Node) bool {
			return n.Kind() == node.KindText && strings.Contains(n.Content(), substr)
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substr),
	}
}

// ByPredicate matches nodes for which fn returns true.
func ByPredicate(desc string, fn func(*node.Node) bool) Finder {
	return &predicateFinder{match: fn, desc: fmt.Sprintf("ByPredicate(%s)", desc)}
}

func collectMatches(root *node.Node, match func(*node.Node) bool) []*node.Node {
	if root == nil {
		return nil
	}
	var out []*node.Node
	root.Walk(func(n *node.Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

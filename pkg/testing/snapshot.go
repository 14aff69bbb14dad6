package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/layout"
	"github.com/go-drift/loom/pkg/node"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the rendered tree with resolved boxes and the ops that
// are currently visible.
type Snapshot struct {
	Tree *SnapshotNode `json:"tree"`
	Ops  []string      `json:"ops,omitempty"`
}

// SnapshotNode is one node of the serialized tree. Box is
// [left, top, width, height, z].
type SnapshotNode struct {
	ID       string          `json:"id"`
	Key      string          `json:"key,omitempty"`
	Box      [5]float64      `json:"box"`
	Content  string          `json:"content,omitempty"`
	Children []*SnapshotNode `json:"children,omitempty"`
}

// CaptureSnapshot serializes the node tree, with boxes from the render
// cache, and the visible ops.
func CaptureSnapshot(root *node.Node, pipeline *layout.Pipeline, backend *RecordingBackend) *Snapshot {
	snap := &Snapshot{}
	if root != nil {
		snap.Tree = captureNode(root, pipeline, &kindCounter{})
	}
	if backend != nil {
		for _, op := range backend.Visible() {
			snap.Ops = append(snap.Ops, op.String())
		}
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When LOOM_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("LOOM_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: LOOM_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: LOOM_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns the
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// kindCounter assigns stable IDs like "text#0", "text#1", independent of
// process-wide node IDs.
type kindCounter struct {
	counts map[node.Kind]int
}

func (c *kindCounter) next(k node.Kind) string {
	if c.counts == nil {
		c.counts = make(map[node.Kind]int)
	}
	n := c.counts[k]
	c.counts[k] = n + 1
	return fmt.Sprintf("%s#%d", k, n)
}

func captureNode(n *node.Node, pipeline *layout.Pipeline, counter *kindCounter) *SnapshotNode {
	out := &SnapshotNode{
		ID:      counter.next(n.Kind()),
		Key:     n.Key(),
		Content: n.Content(),
	}
	if n.Kind() == node.KindSource {
		out.Content = n.Path()
	}
	if pipeline != nil {
		if res, ok := pipeline.Cached(n); ok {
			out.Box = boxArray(res.Box)
		}
	}
	for _, c := range n.Children() {
		out.Children = append(out.Children, captureNode(c, pipeline, counter))
	}
	return out
}

func boxArray(b bounds.BoundingBox) [5]float64 {
	return [5]float64{round3(b.Left), round3(b.Top), round3(b.Width), round3(b.Height), round3(b.Z)}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := max(len(expectedLines), len(actualLines))
	for i := range maxLen {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}

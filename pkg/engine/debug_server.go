package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/node"
)

// maxTreeDepth limits recursion depth when serializing trees.
const maxTreeDepth = 500

// SafeFloat wraps a float64 to handle Inf/NaN in JSON encoding.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-Infinity"`), nil
	}
	if math.IsNaN(v) {
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// SafeBox is a JSON-safe bounding box.
type SafeBox struct {
	Left   SafeFloat `json:"left"`
	Top    SafeFloat `json:"top"`
	Width  SafeFloat `json:"width"`
	Height SafeFloat `json:"height"`
	Z      SafeFloat `json:"z"`
}

// NodeTreeNode is a node of the serialized node tree. Box is nil for nodes
// without a cache entry.
type NodeTreeNode struct {
	ID       uint64         `json:"id"`
	Kind     string         `json:"kind"`
	Key      string         `json:"key,omitempty"`
	Content  string         `json:"content,omitempty"`
	Hidden   bool           `json:"hidden,omitempty"`
	Box      *SafeBox       `json:"box,omitempty"`
	Children []NodeTreeNode `json:"children,omitempty"`
}

// ComponentTreeNode is a node of the serialized component tree.
type ComponentTreeNode struct {
	Name     string              `json:"name"`
	Key      string              `json:"key,omitempty"`
	Depth    int                 `json:"depth"`
	Slots    int                 `json:"slots"`
	NodeID   uint64              `json:"nodeId"`
	Children []ComponentTreeNode `json:"children,omitempty"`
}

// DebugServer serves engine state over HTTP for inspection while an app
// runs. Every endpoint reads the tree between frames.
type DebugServer struct {
	engine   *Engine
	server   *http.Server
	listener net.Listener
	runtime  *RuntimeSampleBuffer
	stop     chan struct{}
	stopOnce sync.Once
}

// StartDebugServer listens on addr (":0" picks a free port) and serves
// e's debug endpoints until Close. Runtime samples are taken every
// sampleInterval; zero uses the default.
func StartDebugServer(e *Engine, addr string, sampleInterval time.Duration) (*DebugServer, error) {
	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug server listen: %w", err)
	}

	interval := normalizeRuntimeInterval(sampleInterval)
	s := &DebugServer{
		engine:   e,
		listener: listener,
		runtime:  NewRuntimeSampleBuffer(0, interval),
		stop:     make(chan struct{}),
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	s.runtime.Add(s.engine.runtimeSample())
	go s.sample(interval)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			e.logger.Error("debug server stopped", "err", err)
		}
	}()
	e.logger.Info("debug server listening", "addr", s.Addr())
	return s, nil
}

// Addr returns the address the server listens on.
func (s *DebugServer) Addr() string {
	return s.listener.Addr().String()
}

// Close shuts the server down, waiting for in-flight requests until ctx is
// done.
func (s *DebugServer) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.server.Shutdown(ctx)
}

func (s *DebugServer) sample(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runtime.Add(s.engine.runtimeSample())
		case <-s.stop:
			return
		}
	}
}

// Handler returns the router behind the server.
func (s *DebugServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", handleHealth)
	r.Get("/tree", s.handleNodeTree)
	r.Get("/components", s.handleComponentTree)
	r.Get("/frames", s.handleFrameTimeline)
	r.Get("/runtime", s.handleRuntime)
	r.Get("/stats", s.handleStats)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *DebugServer) handleNodeTree(w http.ResponseWriter, r *http.Request) {
	var tree NodeTreeNode
	s.engine.inspect(func() {
		tree = s.engine.serializeNodeTree(s.engine.root.Node(), 0)
	})
	writeJSON(w, tree)
}

func (s *DebugServer) handleComponentTree(w http.ResponseWriter, r *http.Request) {
	var tree ComponentTreeNode
	mounted := true
	s.engine.inspect(func() {
		if !s.engine.root.Mounted() {
			mounted = false
			return
		}
		tree = serializeComponentTree(s.engine.root.Component(), 0)
	})
	if !mounted {
		http.Error(w, "root not mounted", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, tree)
}

func (s *DebugServer) handleFrameTimeline(w http.ResponseWriter, r *http.Request) {
	resp := s.engine.Trace()
	applyFrameFilters(r, &resp)
	writeJSON(w, resp)
}

func (s *DebugServer) handleRuntime(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Samples []RuntimeSample `json:"samples"`
	}{
		Samples: applyRuntimeFilters(r, s.runtime.Snapshot()),
	}
	writeJSON(w, resp)
}

func (s *DebugServer) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Frames  uint64 `json:"frames"`
		Entries int    `json:"entries"`
		Hits    int    `json:"hits"`
		Misses  int    `json:"misses"`
		Visible bool   `json:"visible"`
		Running bool   `json:"running"`
		Dirty   bool   `json:"dirty"`
	}
	s.engine.inspect(func() {
		stats := s.engine.pipeline.Stats()
		resp.Entries = s.engine.pipeline.Len()
		resp.Hits, resp.Misses = stats.Hits, stats.Misses
	})
	resp.Frames = s.engine.Frames()
	resp.Visible = s.engine.Visible()
	resp.Running = s.engine.Running()
	resp.Dirty = s.engine.Dirty()
	writeJSON(w, resp)
}

// writeJSON encodes to a buffer first so encode errors become a 500.
func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func applyFrameFilters(r *http.Request, resp *FrameTimeline) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filters []func(FrameSample) bool

	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.FrameMs >= v })
	}
	if v := parseFloatQuery(r, "render_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.RenderMs >= v })
	}
	if v := parseFloatQuery(r, "layout_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.LayoutMs >= v })
	}
	if v := parseFloatQuery(r, "min_misses"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return float64(s.Counts.Misses) >= v })
	}

	if len(filters) > 0 {
		filtered := make([]FrameSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func applyRuntimeFilters(r *http.Request, samples []RuntimeSample) []RuntimeSample {
	windowSeconds := parseFloatQuery(r, "window")
	if windowSeconds > 0 {
		cutoff := time.Now().Add(-time.Duration(windowSeconds * float64(time.Second))).UnixMilli()
		filtered := make([]RuntimeSample, 0, len(samples))
		for _, sample := range samples {
			if sample.Timestamp >= cutoff {
				filtered = append(filtered, sample)
			}
		}
		samples = filtered
	}

	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	return samples
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

// serializeNodeTree converts the node tree to JSON form, attaching cached
// boxes. Caller holds the tree.
func (e *Engine) serializeNodeTree(n *node.Node, depth int) NodeTreeNode {
	out := NodeTreeNode{
		ID:      uint64(n.ID()),
		Kind:    n.Kind().String(),
		Key:     n.Key(),
		Content: n.Content(),
		Hidden:  !n.Visible(),
	}
	if n.Kind() == node.KindSource {
		out.Content = n.Path()
	}
	if res, ok := e.pipeline.Cached(n); ok {
		b := res.Box
		out.Box = &SafeBox{
			Left:   SafeFloat(b.Left),
			Top:    SafeFloat(b.Top),
			Width:  SafeFloat(b.Width),
			Height: SafeFloat(b.Height),
			Z:      SafeFloat(b.Z),
		}
	}
	if depth < maxTreeDepth {
		for _, c := range n.Children() {
			out.Children = append(out.Children, e.serializeNodeTree(c, depth+1))
		}
	}
	return out
}

func serializeComponentTree(c *core.Component, depth int) ComponentTreeNode {
	out := ComponentTreeNode{
		Name:   c.Name(),
		Key:    c.Key(),
		Depth:  c.Depth(),
		Slots:  c.Slots(),
		NodeID: uint64(c.Node().ID()),
	}
	if depth < maxTreeDepth {
		for _, child := range c.Children() {
			out.Children = append(out.Children, serializeComponentTree(child, depth+1))
		}
	}
	return out
}

package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-drift/loom/pkg/engine"
)

func startDebug(t *testing.T, f *fixture) string {
	t.Helper()
	srv, err := engine.StartDebugServer(f.engine, "127.0.0.1:0", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("StartDebugServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Close(ctx)
	})
	return "http://" + srv.Addr()
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestDebugServer_Health(t *testing.T) {
	base := startDebug(t, newFixture(t))

	var health map[string]string
	if code := getJSON(t, base+"/health", &health); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if health["status"] != "ok" {
		t.Errorf("status = %q", health["status"])
	}
}

func TestDebugServer_Trees(t *testing.T) {
	f := newFixture(t)
	base := startDebug(t, f)

	if code := getJSON(t, base+"/components", nil); code != http.StatusServiceUnavailable {
		t.Errorf("/components before mount = %d, want 503", code)
	}

	f.frame(t)

	var tree engine.NodeTreeNode
	getJSON(t, base+"/tree", &tree)
	if tree.Kind != "host" || tree.Box == nil {
		t.Fatalf("root = %+v", tree)
	}
	box := tree.Children[0]
	if box.Kind != "box" || len(box.Children) != 2 {
		t.Fatalf("box = %+v", box)
	}
	if got := box.Children[1]; got.Content != "n=0" || got.Box == nil || got.Box.Top != 1 {
		t.Errorf("text node = %+v", got)
	}

	var comps engine.ComponentTreeNode
	getJSON(t, base+"/components", &comps)
	if comps.Name != "Fixture" || comps.Slots != 2 || len(comps.Children) != 1 {
		t.Fatalf("components = %+v", comps)
	}
	if child := comps.Children[0]; child.Name != "Label" || child.Depth != 1 {
		t.Errorf("child = %+v", child)
	}
}

func TestDebugServer_FramesAndStats(t *testing.T) {
	f := newFixture(t)
	base := startDebug(t, f)
	f.frame(t)
	f.engine.ForceRerender()
	f.frame(t)

	var tl engine.FrameTimeline
	getJSON(t, base+"/frames", &tl)
	if len(tl.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(tl.Samples))
	}

	getJSON(t, base+"/frames?min_misses=1", &tl)
	if len(tl.Samples) != 1 || tl.Samples[0].Frame != 1 {
		t.Errorf("filtered samples = %+v", tl.Samples)
	}

	getJSON(t, base+"/frames?limit=1", &tl)
	if len(tl.Samples) != 1 || tl.Samples[0].Frame != 2 {
		t.Errorf("limited samples = %+v", tl.Samples)
	}

	var stats struct {
		Frames  uint64 `json:"frames"`
		Entries int    `json:"entries"`
		Hits    int    `json:"hits"`
		Visible bool   `json:"visible"`
	}
	getJSON(t, base+"/stats", &stats)
	if stats.Frames != 2 || stats.Hits != 1 || !stats.Visible || stats.Entries != f.engine.Pipeline().Len() {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDebugServer_Runtime(t *testing.T) {
	f := newFixture(t)
	f.frame(t)
	base := startDebug(t, f)

	var resp struct {
		Samples []engine.RuntimeSample `json:"samples"`
	}
	getJSON(t, base+"/runtime", &resp)
	if len(resp.Samples) == 0 {
		t.Fatal("expected an initial runtime sample")
	}
	s := resp.Samples[0]
	if s.Goroutines == 0 || s.Timestamp == 0 || s.HeapAlloc == 0 {
		t.Errorf("process stats = %+v", s)
	}
	if s.Frames != 1 || s.CacheEntries != f.engine.Pipeline().Len() || !s.Visible || s.Running {
		t.Errorf("engine stats = %+v", s)
	}
}

func TestDebugServer_PortConflict(t *testing.T) {
	f := newFixture(t)
	srv, err := engine.StartDebugServer(f.engine, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close(context.Background())

	if _, err := engine.StartDebugServer(f.engine, srv.Addr(), 0); err == nil {
		t.Error("expected listen error on a taken port")
	}
}

func TestRuntimeSampleBuffer(t *testing.T) {
	b := engine.NewRuntimeSampleBuffer(3*time.Second, time.Second)
	if b.Window() != 3*time.Second || b.Interval() != time.Second {
		t.Fatalf("window=%v interval=%v", b.Window(), b.Interval())
	}
	if b.Snapshot() != nil {
		t.Error("empty buffer returned samples")
	}
	for i := range 5 {
		b.Add(engine.RuntimeSample{Timestamp: int64(i)})
	}
	got := b.Snapshot()
	want := fmt.Sprint([]int64{2, 3, 4})
	var ts []int64
	for _, s := range got {
		ts = append(ts, s.Timestamp)
	}
	if fmt.Sprint(ts) != want {
		t.Errorf("timestamps = %v, want %s", ts, want)
	}
}

func TestRuntimeSampleBuffer_Normalizes(t *testing.T) {
	b := engine.NewRuntimeSampleBuffer(0, 0)
	if b.Interval() != 5*time.Second || b.Window() != 60*time.Second {
		t.Errorf("defaults: window=%v interval=%v", b.Window(), b.Interval())
	}
	b = engine.NewRuntimeSampleBuffer(time.Hour, time.Millisecond)
	if b.Interval() != 10*time.Millisecond || b.Window() != 120*10*time.Millisecond {
		t.Errorf("clamped: window=%v interval=%v", b.Window(), b.Interval())
	}
}

func TestFrameTraceBuffer(t *testing.T) {
	b := engine.NewFrameTraceBuffer(2, 10*time.Millisecond)
	if b.Capacity() != 2 {
		t.Fatalf("Capacity() = %d", b.Capacity())
	}
	b.Add(engine.FrameSample{Frame: 1}, time.Millisecond)
	b.Add(engine.FrameSample{Frame: 2}, 20*time.Millisecond)
	b.Add(engine.FrameSample{Frame: 3}, 30*time.Millisecond)

	tl := b.Snapshot()
	var frames []uint64
	for _, s := range tl.Samples {
		frames = append(frames, s.Frame)
	}
	if fmt.Sprint(frames) != "[2 3]" || tl.SlowFrames != 2 || tl.ThresholdMs != 10 {
		t.Errorf("timeline = %+v", tl)
	}
}

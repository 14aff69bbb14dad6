// Package testing provides a test harness for Loom components.
//
// # Quick Start
//
// Create a tester, pump a frame, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := loomtest.NewTester(t, Counter, CounterProps{})
//	    tester.MustPump()
//
//	    if !tester.Find(loomtest.ByText("count: 0")).Exists() {
//	        t.Error("expected initial count")
//	    }
//
//	    tester.Press("+")
//	    tester.MustPump()
//	}
//
// Frames run only when Pump is called. For tests of the frame timer, the
// engine's ticker factory is a Tickers, whose ManualTicker values tick on
// demand.
//
// # Snapshot Testing
//
// Capture and compare the rendered tree with resolved boxes:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	LOOM_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import loomtest "github.com/go-drift/loom/pkg/testing"
package testing

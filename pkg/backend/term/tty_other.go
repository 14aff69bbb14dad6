//go:build !(linux || solaris || darwin || dragonfly || freebsd || netbsd || openbsd)

package term

type ttyState struct{}

func winSize(fd int) (cols, rows int, ok bool) { return 0, 0, false }

// makeRaw is a no-op; keys arrive line-buffered.
func makeRaw(fd int) (*ttyState, error) { return nil, nil }

func restore(fd int, state *ttyState) error { return nil }

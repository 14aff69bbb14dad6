//go:build linux || solaris || darwin || dragonfly || freebsd || netbsd || openbsd

package term

import (
	"golang.org/x/sys/unix"
)

// winSize returns the size of the terminal on fd, or ok=false.
func winSize(fd int) (cols, rows int, ok bool) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 0, 0, false
	}
	return int(ws.Col), int(ws.Row), true
}

type ttyState struct {
	termios unix.Termios
}

// makeRaw disables echo, line buffering and signal keys on fd.
func makeRaw(fd int) (*ttyState, error) {
	termios, err := unix.IoctlGetTermios(fd, getAttrIOCTL)
	if err != nil {
		return nil, err
	}
	state := &ttyState{termios: *termios}

	termios.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	termios.Oflag &^= unix.OPOST
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, setAttrIOCTL, termios); err != nil {
		return nil, err
	}
	return state, nil
}

func restore(fd int, state *ttyState) error {
	if state == nil {
		return nil
	}
	return unix.IoctlSetTermios(fd, setAttrIOCTL, &state.termios)
}

//go:build linux || solaris

package term

import "golang.org/x/sys/unix"

const (
	getAttrIOCTL = unix.TCGETS
	setAttrIOCTL = unix.TCSETS
)

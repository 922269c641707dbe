//go:build linux

package interfaces

import "golang.org/x/sys/unix"

// CurrentThreadID returns the id of the calling OS thread.
func CurrentThreadID() int {
	return unix.Gettid()
}

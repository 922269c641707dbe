//go:build !linux

package interfaces

// CurrentThreadID returns 0 where the OS thread id is not available; all
// threads then look alike to thread-keyed bookkeeping.
func CurrentThreadID() int {
	return 0
}

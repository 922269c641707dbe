package callbridge

import "sync"

// The native registry stores Go objects the host refers to by a plain
// 64-bit id, so no Go pointer ever crosses the boundary. Ids are never
// reused within a process.
var (
	nativeMu   sync.RWMutex
	natives    = make(map[uintptr]any)
	nextNative uintptr = 1
)

func registerNative(v any) uintptr {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	id := nextNative
	nextNative++
	natives[id] = v
	return id
}

func unregisterNative(id uintptr) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	delete(natives, id)
}

// LookupNative returns the native object registered under id.
func LookupNative(id uintptr) (any, bool) {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	v, ok := natives[id]
	return v, ok
}

// LookupConnection resolves the native pointer handed to the host when a
// connection was created.
func LookupConnection(id uintptr) (*Connection, bool) {
	v, ok := LookupNative(id)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Connection)
	return c, ok
}

// LookupMediaStream resolves the native pointer of an exposed media stream.
func LookupMediaStream(id uintptr) (*MediaStreamHandle, bool) {
	v, ok := LookupNative(id)
	if !ok {
		return nil, false
	}
	m, ok := v.(*MediaStreamHandle)
	return m, ok
}

// NativeCount returns the number of registered native objects.
func NativeCount() int {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	return len(natives)
}

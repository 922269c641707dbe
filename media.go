package callbridge

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
)

// MediaStream groups the local tracks the engine wants the host to render or
// send. Every track must carry the stream id.
type MediaStream struct {
	id     string
	tracks []webrtc.TrackLocal
}

// NewMediaStream creates a stream with the given id and tracks.
func NewMediaStream(id string, tracks ...webrtc.TrackLocal) *MediaStream {
	return &MediaStream{id: id, tracks: append([]webrtc.TrackLocal(nil), tracks...)}
}

// ID returns the stream id.
func (m *MediaStream) ID() string { return m.id }

// Tracks returns a copy of the stream's tracks.
func (m *MediaStream) Tracks() []webrtc.TrackLocal {
	return append([]webrtc.TrackLocal(nil), m.tracks...)
}

func (m *MediaStream) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil stream", ErrInvalidMediaStream)
	}
	if m.id == "" {
		return fmt.Errorf("%w: empty stream id", ErrInvalidMediaStream)
	}
	for _, t := range m.tracks {
		if t == nil {
			return fmt.Errorf("%w: nil track in stream %s", ErrInvalidMediaStream, m.id)
		}
		if t.StreamID() != m.id {
			return fmt.Errorf("%w: track %s belongs to stream %q, not %q",
				ErrInvalidMediaStream, t.ID(), t.StreamID(), m.id)
		}
	}
	return nil
}

// MediaStreamHandle exposes a MediaStream to the host through a native
// pointer. It is owned by the connection it was created for and is closed
// with that connection.
type MediaStreamHandle struct {
	stream *MediaStream
	native uintptr

	mu     sync.Mutex
	closed bool
}

func newMediaStreamHandle(stream *MediaStream) *MediaStreamHandle {
	h := &MediaStreamHandle{stream: stream}
	h.native = registerNative(h)
	return h
}

// Stream returns the wrapped stream.
func (h *MediaStreamHandle) Stream() *MediaStream { return h.stream }

// NativePointer returns the id the host uses to reach this stream, or
// ErrHandleReleased once the owning connection has closed.
func (h *MediaStreamHandle) NativePointer() (uintptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrHandleReleased
	}
	return h.native, nil
}

func (h *MediaStreamHandle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	unregisterNative(h.native)
}

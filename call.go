package callbridge

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Call is the native record of one call: what the engine knows about it
// that the bridge needs. It owns the host call context.
type Call struct {
	id        CallID
	direction Direction
	remote    RemotePeer
	context   *CallContext

	closeOnce sync.Once
}

// NewCall creates a call record. ctx may be nil for calls that never got a
// host context; ownership of a non-nil ctx passes to the call.
func NewCall(id CallID, direction Direction, remote RemotePeer, ctx *CallContext) *Call {
	return &Call{id: id, direction: direction, remote: remote, context: ctx}
}

// ID returns the call id.
func (c *Call) ID() CallID { return c.id }

// Direction returns whether the call was placed or received.
func (c *Call) Direction() Direction { return c.direction }

// RemotePeer returns the borrowed host reference to the remote participant.
func (c *Call) RemotePeer() RemotePeer { return c.remote }

// CallContext returns the context owned by the call. The caller must Clone
// it to keep it beyond the call's lifetime.
func (c *Call) CallContext() (*CallContext, error) {
	if c.context == nil {
		return nil, ErrNoCallContext
	}
	if _, err := c.context.Object(); err != nil {
		return nil, ErrNoCallContext
	}
	return c.context, nil
}

// Close releases the call context. It is safe to call more than once.
func (c *Call) Close() {
	c.closeOnce.Do(func() {
		logrus.WithFields(logrus.Fields{
			"function": "Call.Close",
			"call_id":  c.id.String(),
		}).Debug("Closing call")
		if c.context != nil {
			c.context.Release()
		}
	})
}

// Connection is the native side of one call leg to a remote device. The host
// connection object created for it is attached once and released with it.
type Connection struct {
	id     ConnectionID
	call   *Call
	native uintptr

	mu      sync.Mutex
	app     *ConnectionHandle
	streams []*MediaStreamHandle
	closed  bool
}

// NewConnection creates a connection for call and registers its native
// pointer.
func NewConnection(call *Call, device DeviceID) *Connection {
	c := &Connection{id: NewConnectionID(call.ID(), device), call: call}
	c.native = registerNative(c)
	return c
}

// ID returns the connection id.
func (c *Connection) ID() ConnectionID { return c.id }

// Call returns the parent call.
func (c *Connection) Call() *Call { return c.call }

// NativePointer returns the registry id handed to the host.
func (c *Connection) NativePointer() uintptr { return c.native }

// AppConnection returns the attached host connection handle, or nil.
func (c *Connection) AppConnection() *ConnectionHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app
}

// SetAppConnection attaches the host connection. Ownership of h passes to the
// connection, which releases it on Close.
func (c *Connection) SetAppConnection(h *ConnectionHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if c.app != nil {
		return ErrConnectionAttached
	}
	c.app = h
	return nil
}

// MediaStreams returns the media stream handles created for the connection.
func (c *Connection) MediaStreams() []*MediaStreamHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MediaStreamHandle(nil), c.streams...)
}

func (c *Connection) addMediaStream(h *MediaStreamHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	c.streams = append(c.streams, h)
	return nil
}

// Close releases the host connection, closes every media stream and
// unregisters the native pointer. It is safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	app, streams := c.app, c.streams
	c.app, c.streams = nil, nil
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":      "Connection.Close",
		"connection_id": c.id.String(),
		"media_streams": len(streams),
	}).Debug("Closing connection")

	for _, s := range streams {
		s.close()
	}
	if app != nil {
		app.Release()
	}
	unregisterNative(c.native)
}

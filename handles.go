package callbridge

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// sharedRef is the state shared by every owner of one host object: a cloned
// adapter to reach the host with, the global reference, and the close method
// the host expects when the last owner goes away.
type sharedRef struct {
	kind     string
	platform *Adapter
	object   interfaces.Ref
	close    hostMethod

	owners atomic.Int64
	closed atomic.Bool
	once   sync.Once
}

func newSharedRef(kind string, platform *Adapter, object interfaces.Ref, close hostMethod) *sharedRef {
	r := &sharedRef{kind: kind, platform: platform, object: object, close: close}
	r.owners.Store(1)
	return r
}

// tryAcquire adds an owner unless the count already reached zero.
func (r *sharedRef) tryAcquire() bool {
	for {
		n := r.owners.Load()
		if n <= 0 {
			return false
		}
		if r.owners.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *sharedRef) drop() {
	if r.owners.Add(-1) == 0 {
		r.once.Do(r.release)
	}
}

// release notifies the host exactly once. It runs on whichever thread
// dropped the last owner, including the finalizer goroutine. If that thread
// cannot attach, the notification is skipped: a release never fails.
func (r *sharedRef) release() {
	r.closed.Store(true)
	defer r.platform.Close()

	logrus.WithFields(logrus.Fields{
		"function": "sharedRef.release",
		"kind":     r.kind,
	}).Info("Releasing host object")

	stats := r.platform.b.stats
	env, done, err := r.platform.b.attach.acquire()
	if err != nil {
		stats.skippedCloses.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "sharedRef.release",
			"kind":     r.kind,
			"method":   r.close.name,
			"error":    err.Error(),
		}).Warn("Skipping host close notification, thread could not attach")
		return
	}
	defer done()

	if _, err := r.platform.invokeManager(env, r.close, interfaces.Object(r.object)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "sharedRef.release",
			"kind":     r.kind,
			"method":   r.close.name,
			"error":    err.Error(),
		}).Error("Host close notification failed")
	} else {
		stats.closes.Add(1)
	}
	env.DeleteGlobalRef(r.object)
}

// CallContext owns the host per-call context object. Every clone is an
// owner; the host's close notification fires once, when the last owner is
// released. Owners are safe to clone and release from any goroutine.
type CallContext struct {
	ref      *sharedRef
	released atomic.Bool
}

func newCallContext(platform *Adapter, object interfaces.Ref) *CallContext {
	ref := newSharedRef("CallContext", platform, object, platform.b.methods.closeCall)
	return trackCallContext(&CallContext{ref: ref})
}

func trackCallContext(c *CallContext) *CallContext {
	runtime.SetFinalizer(c, (*CallContext).Release)
	return c
}

// Clone returns a new owner of the same host object.
func (c *CallContext) Clone() (*CallContext, error) {
	if c.released.Load() || !c.ref.tryAcquire() {
		return nil, ErrHandleReleased
	}
	return trackCallContext(&CallContext{ref: c.ref}), nil
}

// Release drops this owner. Calling it more than once has no further effect.
func (c *CallContext) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(c, nil)
	c.ref.drop()
}

// Object returns the global reference to the host call context.
func (c *CallContext) Object() (interfaces.Ref, error) {
	if c == nil || c.released.Load() || c.ref.closed.Load() {
		return interfaces.Null, ErrHandleReleased
	}
	return c.ref.object, nil
}

// ConnectionHandle owns the host per-connection object under the same
// discipline as CallContext, closing it with the connection close method.
type ConnectionHandle struct {
	ref      *sharedRef
	released atomic.Bool
}

func newConnectionHandle(platform *Adapter, object interfaces.Ref) *ConnectionHandle {
	ref := newSharedRef("Connection", platform, object, platform.b.methods.closeConnection)
	return trackConnectionHandle(&ConnectionHandle{ref: ref})
}

func trackConnectionHandle(h *ConnectionHandle) *ConnectionHandle {
	runtime.SetFinalizer(h, (*ConnectionHandle).Release)
	return h
}

// Clone returns a new owner of the same host object.
func (h *ConnectionHandle) Clone() (*ConnectionHandle, error) {
	if h.released.Load() || !h.ref.tryAcquire() {
		return nil, ErrHandleReleased
	}
	return trackConnectionHandle(&ConnectionHandle{ref: h.ref}), nil
}

// Release drops this owner. Calling it more than once has no further effect.
func (h *ConnectionHandle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(h, nil)
	h.ref.drop()
}

// Object returns the global reference to the host connection.
func (h *ConnectionHandle) Object() (interfaces.Ref, error) {
	if h == nil || h.released.Load() || h.ref.closed.Load() {
		return interfaces.Null, ErrHandleReleased
	}
	return h.ref.object, nil
}

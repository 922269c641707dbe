package callbridge

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// NewCallContext takes ownership of a host call context object, typically
// the one the host passed in when it asked the engine to start a call.
func (a *Adapter) NewCallContext(obj interfaces.Ref) (*CallContext, error) {
	if obj.IsNull() {
		return nil, fmt.Errorf("call context: %w", ErrNullObject)
	}

	var ctx *CallContext
	err := a.withEnv(func(env interfaces.IHostEnv) error {
		global, err := env.NewGlobalRef(obj)
		if err != nil {
			return &InvocationError{Method: "NewGlobalRef", Err: err}
		}
		owner, err := a.cloneOwner()
		if err != nil {
			env.DeleteGlobalRef(global)
			return err
		}
		ctx = newCallContext(owner, global)
		return nil
	})
	return ctx, err
}

// CreateConnection asks the host to create its connection object for a new
// native connection. The native pointer passed to the host resolves back to
// the returned Connection through LookupConnection.
func (a *Adapter) CreateConnection(call *Call, remote DeviceID) (*Connection, error) {
	if call == nil {
		return nil, nilArgument("CreateConnection", "call")
	}
	logrus.WithFields(logrus.Fields{
		"function":      "CreateConnection",
		"call_id":       call.ID().String(),
		"remote_device": remote,
	}).Info("Creating host connection")

	ctx, err := call.CallContext()
	if err != nil {
		return nil, err
	}
	ctxObj, err := ctx.Object()
	if err != nil {
		return nil, err
	}

	conn := NewConnection(call, remote)
	err = a.withEnv(func(env interfaces.IHostEnv) error {
		v, err := a.invokeManager(env, a.b.methods.createConnection,
			interfaces.Long(int64(conn.NativePointer())),
			interfaces.Long(call.ID().wire()),
			interfaces.Int(remote.wire()),
			interfaces.Object(ctxObj),
		)
		runtime.KeepAlive(ctx)
		if err != nil {
			return err
		}

		local, err := v.Object()
		if err != nil {
			return &InvocationError{Method: a.b.methods.createConnection.name, Signature: a.b.methods.createConnection.sig, Err: err}
		}
		if local.IsNull() {
			return ErrNullConnection
		}
		defer env.DeleteLocalRef(local)

		global, err := env.NewGlobalRef(local)
		if err != nil {
			return &InvocationError{Method: "NewGlobalRef", Err: err}
		}
		owner, err := a.cloneOwner()
		if err != nil {
			env.DeleteGlobalRef(global)
			return err
		}
		handle := newConnectionHandle(owner, global)
		if err := conn.SetAppConnection(handle); err != nil {
			handle.Release()
			return err
		}
		return nil
	})
	if err != nil {
		conn.Close()
		logrus.WithFields(logrus.Fields{
			"function": "CreateConnection",
			"call_id":  call.ID().String(),
			"error":    err.Error(),
		}).Error("Failed to create host connection")
		return nil, err
	}
	return conn, nil
}

// OnStartCall tells the host a call has begun.
func (a *Adapter) OnStartCall(remote RemotePeer, callID CallID, direction Direction) error {
	logrus.WithFields(logrus.Fields{
		"function":  "OnStartCall",
		"call_id":   callID.String(),
		"direction": direction.String(),
	}).Info("Notifying host of call start")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		_, err := a.invokeManager(env, a.b.methods.onStartCall,
			interfaces.Object(remote.Ref()),
			interfaces.Long(callID.wire()),
			interfaces.Bool(direction == DirectionOutgoing),
		)
		return err
	})
}

// OnEvent converts event to the host enumeration by ordinal and delivers it.
func (a *Adapter) OnEvent(remote RemotePeer, event Event) error {
	logrus.WithFields(logrus.Fields{
		"function": "OnEvent",
		"event":    event.String(),
	}).Info("Notifying host of call event")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		hostEvent, err := a.hostEvent(env, event)
		if err != nil {
			return err
		}
		defer env.DeleteLocalRef(hostEvent)

		_, err = a.invokeManager(env, a.b.methods.onEvent,
			interfaces.Object(remote.Ref()),
			interfaces.Object(hostEvent),
		)
		return err
	})
}

// hostEvent looks up the host enumeration constant for event. Every failure
// of the lookup, including a null constant, is a resolution error naming the
// lookup method.
func (a *Adapter) hostEvent(env interfaces.IHostEnv, event Event) (interfaces.Ref, error) {
	class := a.b.cfg.CallEventClassName()
	m := a.b.methods.eventFromIndex

	v, err := a.invokeStatic(env, class, m, interfaces.Int(int32(event)))
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			return interfaces.Null, err
		}
		return interfaces.Null, &ResolutionError{Target: class, Method: m.name, Signature: m.sig, Err: err}
	}
	obj, err := v.Object()
	if err != nil {
		return interfaces.Null, &ResolutionError{Target: class, Method: m.name, Signature: m.sig, Err: err}
	}
	if obj.IsNull() {
		return interfaces.Null, &ResolutionError{
			Target: class, Method: m.name, Signature: m.sig,
			Err: fmt.Errorf("no constant for ordinal %d: %w", int32(event), ErrNullObject),
		}
	}
	return obj, nil
}

// OnSendOffer asks the host to send an offer to the remote device.
func (a *Adapter) OnSendOffer(remote RemotePeer, connectionID ConnectionID, broadcast bool, description string) error {
	return a.sendDescription("OnSendOffer", a.b.methods.onSendOffer, remote, connectionID, broadcast, description)
}

// OnSendAnswer asks the host to send an answer to the remote device.
func (a *Adapter) OnSendAnswer(remote RemotePeer, connectionID ConnectionID, broadcast bool, description string) error {
	return a.sendDescription("OnSendAnswer", a.b.methods.onSendAnswer, remote, connectionID, broadcast, description)
}

func (a *Adapter) sendDescription(function string, m hostMethod, remote RemotePeer, connectionID ConnectionID, broadcast bool, description string) error {
	logrus.WithFields(logrus.Fields{
		"function":      function,
		"connection_id": connectionID.String(),
		"broadcast":     broadcast,
		"length":        len(description),
	}).Info("Sending session description")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		str, err := a.newString(env, description)
		if err != nil {
			return err
		}
		defer env.DeleteLocalRef(str)

		_, err = a.invokeManager(env, m,
			interfaces.Long(connectionID.CallID().wire()),
			interfaces.Object(remote.Ref()),
			interfaces.Int(connectionID.RemoteDevice().wire()),
			interfaces.Bool(broadcast),
			interfaces.Object(str),
		)
		return err
	})
}

// OnSendICECandidates builds a host list with one candidate object per
// entry, in input order, and hands it to the host.
func (a *Adapter) OnSendICECandidates(remote RemotePeer, connectionID ConnectionID, broadcast bool, candidates []ICECandidate) error {
	logrus.WithFields(logrus.Fields{
		"function":      "OnSendICECandidates",
		"connection_id": connectionID.String(),
		"broadcast":     broadcast,
		"candidates":    len(candidates),
	}).Info("Sending ICE candidates")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		list, err := a.candidateList(env, candidates)
		if err != nil {
			return err
		}
		defer env.DeleteLocalRef(list)

		_, err = a.invokeManager(env, a.b.methods.onSendICECandidates,
			interfaces.Long(connectionID.CallID().wire()),
			interfaces.Object(remote.Ref()),
			interfaces.Int(connectionID.RemoteDevice().wire()),
			interfaces.Bool(broadcast),
			interfaces.Object(list),
		)
		return err
	})
}

func (a *Adapter) candidateList(env interfaces.IHostEnv, candidates []ICECandidate) (interfaces.Ref, error) {
	list, err := a.construct(env, a.b.cfg.ListClass, a.b.methods.listCtor)
	if err != nil {
		return interfaces.Null, err
	}
	for i, c := range candidates {
		if err := a.appendCandidate(env, list, c); err != nil {
			env.DeleteLocalRef(list)
			return interfaces.Null, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "candidateList",
		"candidates": len(candidates),
	}).Debug("Built host candidate list")
	return list, nil
}

// appendCandidate adds one candidate to list. The candidate and its strings
// are local references and are deleted straight away: attached daemon
// threads never return to the host, so locals are not freed for them.
func (a *Adapter) appendCandidate(env interfaces.IHostEnv, list interfaces.Ref, c ICECandidate) error {
	mid, err := a.newString(env, c.SDPMid)
	if err != nil {
		return err
	}
	defer env.DeleteLocalRef(mid)

	sdp, err := a.newString(env, c.SDP)
	if err != nil {
		return err
	}
	defer env.DeleteLocalRef(sdp)

	obj, err := a.construct(env, a.b.cfg.ICECandidateClass, a.b.methods.iceCandidateCtor,
		interfaces.Object(mid),
		interfaces.Int(c.SDPMLineIndex),
		interfaces.Object(sdp),
	)
	if err != nil {
		return err
	}
	defer env.DeleteLocalRef(obj)

	_, err = a.invoke(env, list, a.b.cfg.ListClass, a.b.methods.listAdd, interfaces.Object(obj))
	return err
}

// OnSendHangup asks the host to send a hangup to the remote device.
func (a *Adapter) OnSendHangup(remote RemotePeer, connectionID ConnectionID, broadcast bool) error {
	return a.sendSignal("OnSendHangup", a.b.methods.onSendHangup, remote, connectionID, broadcast)
}

// OnSendBusy asks the host to tell the remote device the user is busy.
func (a *Adapter) OnSendBusy(remote RemotePeer, connectionID ConnectionID, broadcast bool) error {
	return a.sendSignal("OnSendBusy", a.b.methods.onSendBusy, remote, connectionID, broadcast)
}

func (a *Adapter) sendSignal(function string, m hostMethod, remote RemotePeer, connectionID ConnectionID, broadcast bool) error {
	logrus.WithFields(logrus.Fields{
		"function":      function,
		"connection_id": connectionID.String(),
		"broadcast":     broadcast,
	}).Info("Sending signaling message")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		_, err := a.invokeManager(env, m,
			interfaces.Long(connectionID.CallID().wire()),
			interfaces.Object(remote.Ref()),
			interfaces.Int(connectionID.RemoteDevice().wire()),
			interfaces.Bool(broadcast),
		)
		return err
	})
}

// CreateMediaStream wraps stream for the host. The handle belongs to conn
// and is closed with it.
func (a *Adapter) CreateMediaStream(conn *Connection, stream *MediaStream) (*MediaStreamHandle, error) {
	if conn == nil {
		return nil, nilArgument("CreateMediaStream", "connection")
	}
	if err := stream.validate(); err != nil {
		return nil, err
	}
	h := newMediaStreamHandle(stream)
	if err := conn.addMediaStream(h); err != nil {
		h.close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "CreateMediaStream",
		"connection_id": conn.ID().String(),
		"stream_id":     stream.ID(),
		"tracks":        len(stream.tracks),
	}).Info("Created media stream")
	return h, nil
}

// OnConnectMedia builds a host media stream around the native stream and
// asks the host to attach it to the call.
func (a *Adapter) OnConnectMedia(remote RemotePeer, ctx *CallContext, stream *MediaStreamHandle) error {
	if stream == nil || stream.Stream() == nil {
		return nilArgument("OnConnectMedia", "stream")
	}
	logrus.WithFields(logrus.Fields{
		"function":  "OnConnectMedia",
		"stream_id": stream.Stream().ID(),
	}).Info("Connecting media")

	ctxObj, err := ctx.Object()
	if err != nil {
		return err
	}
	native, err := stream.NativePointer()
	if err != nil {
		return err
	}

	err = a.withEnv(func(env interfaces.IHostEnv) error {
		hostStream, err := a.construct(env, a.b.cfg.MediaStreamClass, a.b.methods.mediaStreamCtor,
			interfaces.Long(int64(native)))
		if err != nil {
			return err
		}
		defer env.DeleteLocalRef(hostStream)

		_, err = a.invokeManager(env, a.b.methods.onConnectMedia,
			interfaces.Object(ctxObj),
			interfaces.Object(hostStream),
		)
		return err
	})
	runtime.KeepAlive(ctx)
	return err
}

// OnCloseMedia asks the host to detach media from the call.
func (a *Adapter) OnCloseMedia(ctx *CallContext) error {
	logrus.WithFields(logrus.Fields{
		"function": "OnCloseMedia",
	}).Info("Closing media")

	ctxObj, err := ctx.Object()
	if err != nil {
		return err
	}
	err = a.withEnv(func(env interfaces.IHostEnv) error {
		_, err := a.invokeManager(env, a.b.methods.onCloseMedia, interfaces.Object(ctxObj))
		return err
	})
	runtime.KeepAlive(ctx)
	return err
}

// CompareRemotes asks the host whether a and b are the same participant.
func (a *Adapter) CompareRemotes(x, y RemotePeer) (bool, error) {
	var same bool
	err := a.withEnv(func(env interfaces.IHostEnv) error {
		m := a.b.methods.compareRemotes
		v, err := a.invokeManager(env, m, interfaces.Object(x.Ref()), interfaces.Object(y.Ref()))
		if err != nil {
			return err
		}
		same, err = v.Bool()
		if err != nil {
			return &InvocationError{Method: m.name, Signature: m.sig, Err: err}
		}
		return nil
	})

	logrus.WithFields(logrus.Fields{
		"function": "CompareRemotes",
		"same":     same,
	}).Debug("Compared remote peers")
	return same, err
}

// OnCallConcluded tells the host nothing more will happen on the call.
func (a *Adapter) OnCallConcluded(remote RemotePeer) error {
	logrus.WithFields(logrus.Fields{
		"function": "OnCallConcluded",
	}).Info("Notifying host call concluded")

	return a.withEnv(func(env interfaces.IHostEnv) error {
		_, err := a.invokeManager(env, a.b.methods.onCallConcluded, interfaces.Object(remote.Ref()))
		return err
	})
}

func nilArgument(function, name string) error {
	logrus.WithFields(logrus.Fields{
		"function": function,
		"argument": name,
	}).Error("Rejected nil argument")
	return fmt.Errorf("%w: %s", ErrNilArgument, name)
}

package callbridge

import (
	"errors"
	"sync"
	"testing"

	"github.com/opd-ai/callbridge/interfaces"
	simtest "github.com/opd-ai/callbridge/testing"
	"github.com/stretchr/testify/require"
)

// fakeHost is a call manager living in a simulated runtime. It records what
// the bridge tells it so tests can check marshaling and lifecycle.
type fakeHost struct {
	rt      *simtest.SimulatedHostRuntime
	cfg     Config
	manager interfaces.Ref

	mu             sync.Mutex
	nullConnection bool
	closedCalls    int
	closedConns    int
	descriptions   []string
	candidates     [][]ICECandidate
	nativePointers []int64
	mediaPointers  []int64
}

type hostOption func(*hostSetup)

type hostSetup struct {
	skipEventLookup bool
	eventConstants  int
}

// withoutEventLookup leaves CallEvent without its ordinal lookup method.
func withoutEventLookup() hostOption {
	return func(s *hostSetup) { s.skipEventLookup = true }
}

// withEventConstants limits how many ordinals the host enumeration knows.
func withEventConstants(n int) hostOption {
	return func(s *hostSetup) { s.eventConstants = n }
}

func newFakeHost(t *testing.T, opts ...hostOption) *fakeHost {
	t.Helper()

	setup := hostSetup{eventConstants: int(eventCount)}
	for _, opt := range opts {
		opt(&setup)
	}

	h := &fakeHost{rt: simtest.NewSimulatedHostRuntime(), cfg: DefaultConfig()}
	m := newHostMethods(h.cfg)
	rt := h.rt

	rt.DefineClass(h.cfg.CallContextClassName())
	rt.DefineClass(h.cfg.ConnectionClassName())
	rt.DefineClass(h.cfg.RemoteClassName())

	rt.DefineClass(h.cfg.ICECandidateClass).
		Constructor(m.iceCandidateCtor, func(_ interfaces.IHostEnv, args []interfaces.Value) (any, error) {
			mid, err := h.stringArg(args[0])
			if err != nil {
				return nil, err
			}
			idx, err := args[1].Int()
			if err != nil {
				return nil, err
			}
			sdp, err := h.stringArg(args[2])
			if err != nil {
				return nil, err
			}
			if sdp == "" {
				return nil, errors.New("empty candidate")
			}
			return ICECandidate{SDPMid: mid, SDPMLineIndex: idx, SDP: sdp}, nil
		})

	rt.DefineClass(h.cfg.MediaStreamClass).
		Constructor(m.mediaStreamCtor, func(_ interfaces.IHostEnv, args []interfaces.Value) (any, error) {
			return args[0].Long()
		})

	eventClass := rt.DefineClass(h.cfg.CallEventClassName())
	constants := make([]*simtest.SimObject, 0, setup.eventConstants)
	for i := 0; i < setup.eventConstants; i++ {
		ref, err := rt.NewInstance(eventClass.Name, Event(i).String())
		require.NoError(t, err)
		obj, ok := rt.Resolve(ref)
		require.True(t, ok)
		constants = append(constants, obj)
	}
	if !setup.skipEventLookup {
		eventClass.StaticMethod(m.eventFromIndex.name, m.eventFromIndex.sig,
			func(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
				ordinal, err := args[0].Int()
				if err != nil {
					return interfaces.Void(), err
				}
				if ordinal < 0 || int(ordinal) >= len(constants) {
					return interfaces.Object(interfaces.Null), nil
				}
				return interfaces.Object(rt.NewLocalRef(constants[ordinal])), nil
			})
	}

	void := func(interfaces.IHostEnv, *simtest.SimObject, []interfaces.Value) (interfaces.Value, error) {
		return interfaces.Void(), nil
	}

	manager := rt.DefineClass(h.cfg.CallManagerClassName())
	manager.
		Method(m.createConnection.name, m.createConnection.sig, h.createConnection).
		Method(m.closeCall.name, m.closeCall.sig, func(interfaces.IHostEnv, *simtest.SimObject, []interfaces.Value) (interfaces.Value, error) {
			h.mu.Lock()
			h.closedCalls++
			h.mu.Unlock()
			return interfaces.Void(), nil
		}).
		Method(m.closeConnection.name, m.closeConnection.sig, func(interfaces.IHostEnv, *simtest.SimObject, []interfaces.Value) (interfaces.Value, error) {
			h.mu.Lock()
			h.closedConns++
			h.mu.Unlock()
			return interfaces.Void(), nil
		}).
		Method(m.onStartCall.name, m.onStartCall.sig, void).
		Method(m.onEvent.name, m.onEvent.sig, void).
		Method(m.onSendOffer.name, m.onSendOffer.sig, h.recordDescription).
		Method(m.onSendAnswer.name, m.onSendAnswer.sig, h.recordDescription).
		Method(m.onSendICECandidates.name, m.onSendICECandidates.sig, h.recordCandidates).
		Method(m.onSendHangup.name, m.onSendHangup.sig, void).
		Method(m.onSendBusy.name, m.onSendBusy.sig, void).
		Method(m.onConnectMedia.name, m.onConnectMedia.sig, h.recordMedia).
		Method(m.onCloseMedia.name, m.onCloseMedia.sig, void).
		Method(m.compareRemotes.name, m.compareRemotes.sig, h.compareRemotes).
		Method(m.onCallConcluded.name, m.onCallConcluded.sig, void)

	var err error
	h.manager, err = rt.NewInstance(manager.Name, nil)
	require.NoError(t, err)
	return h
}

func (h *fakeHost) stringArg(v interfaces.Value) (string, error) {
	ref, err := v.Object()
	if err != nil {
		return "", err
	}
	return h.rt.StringValue(ref)
}

func (h *fakeHost) createConnection(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
	native, err := args[0].Long()
	if err != nil {
		return interfaces.Void(), err
	}
	h.mu.Lock()
	h.nativePointers = append(h.nativePointers, native)
	null := h.nullConnection
	h.mu.Unlock()

	if null {
		return interfaces.Object(interfaces.Null), nil
	}
	ref, err := h.rt.NewInstance(h.cfg.ConnectionClassName(), native)
	if err != nil {
		return interfaces.Void(), err
	}
	obj, _ := h.rt.Resolve(ref)
	// hand back a local ref like a host factory would; the global from
	// NewInstance stays owned by the host
	return interfaces.Object(h.rt.NewLocalRef(obj)), nil
}

func (h *fakeHost) recordDescription(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
	desc, err := h.stringArg(args[4])
	if err != nil {
		return interfaces.Void(), err
	}
	h.mu.Lock()
	h.descriptions = append(h.descriptions, desc)
	h.mu.Unlock()
	return interfaces.Void(), nil
}

func (h *fakeHost) recordCandidates(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
	ref, err := args[4].Object()
	if err != nil {
		return interfaces.Void(), err
	}
	items, err := h.rt.ListItems(ref)
	if err != nil {
		return interfaces.Void(), err
	}
	batch := make([]ICECandidate, 0, len(items))
	for _, item := range items {
		batch = append(batch, item.Value.(ICECandidate))
	}
	h.mu.Lock()
	h.candidates = append(h.candidates, batch)
	h.mu.Unlock()
	return interfaces.Void(), nil
}

func (h *fakeHost) recordMedia(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
	ref, err := args[1].Object()
	if err != nil {
		return interfaces.Void(), err
	}
	obj, ok := h.rt.Resolve(ref)
	if !ok {
		return interfaces.Void(), interfaces.ErrNullReference
	}
	h.mu.Lock()
	h.mediaPointers = append(h.mediaPointers, obj.Value.(int64))
	h.mu.Unlock()
	return interfaces.Void(), nil
}

func (h *fakeHost) compareRemotes(_ interfaces.IHostEnv, _ *simtest.SimObject, args []interfaces.Value) (interfaces.Value, error) {
	a, err := args[0].Object()
	if err != nil {
		return interfaces.Void(), err
	}
	b, err := args[1].Object()
	if err != nil {
		return interfaces.Void(), err
	}
	objA, okA := h.rt.Resolve(a)
	objB, okB := h.rt.Resolve(b)
	return interfaces.Bool(okA && okB && objA == objB), nil
}

func (h *fakeHost) counts() (calls, conns int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closedCalls, h.closedConns
}

func (h *fakeHost) setNullConnection(null bool) {
	h.mu.Lock()
	h.nullConnection = null
	h.mu.Unlock()
}

func (h *fakeHost) newRemote(t *testing.T, name string) RemotePeer {
	t.Helper()
	ref, err := h.rt.NewInstance(h.cfg.RemoteClassName(), name)
	require.NoError(t, err)
	return NewRemotePeer(ref)
}

func (h *fakeHost) newContextObject(t *testing.T) interfaces.Ref {
	t.Helper()
	ref, err := h.rt.NewInstance(h.cfg.CallContextClassName(), nil)
	require.NoError(t, err)
	return ref
}

func (h *fakeHost) newAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(h.rt, h.manager, h.cfg)
	require.NoError(t, err)
	return a
}

// newCall builds a call with a fresh host context owned by the call.
func (h *fakeHost) newCall(t *testing.T, a *Adapter, id CallID) *Call {
	t.Helper()
	ctx, err := a.NewCallContext(h.newContextObject(t))
	require.NoError(t, err)
	return NewCall(id, DirectionOutgoing, h.newRemote(t, "remote"), ctx)
}

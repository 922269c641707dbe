package callbridge

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionIDComponents(t *testing.T) {
	id := NewConnectionID(1<<63|0xabc, 4000000000)
	assert.Equal(t, CallID(1<<63|0xabc), id.CallID())
	assert.Equal(t, DeviceID(4000000000), id.RemoteDevice())
	assert.Equal(t, "0x8000000000000abc-4000000000", id.String())
	assert.Equal(t, int32(-294967296), id.RemoteDevice().wire())
	assert.Equal(t, uint64(id.CallID()), uint64(id.CallID().wire()))
}

func TestEvents(t *testing.T) {
	events := Events()
	require.Len(t, events, 19)

	seen := make(map[string]bool)
	for i, e := range events {
		assert.Equal(t, Event(i), e)
		name := e.String()
		assert.NotContains(t, name, "Event(")
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Equal(t, "LocalRinging", EventLocalRinging.String())
	assert.Equal(t, "EndedReceivedOfferWhileActive", EventEndedReceivedOfferWhileActive.String())
	assert.Equal(t, "Event(19)", Event(19).String())
	assert.Equal(t, "Event(-1)", Event(-1).String())
}

func TestRemotePeer(t *testing.T) {
	assert.False(t, reflect.TypeOf(RemotePeer{}).Comparable(), "identity goes through CompareRemotes")

	assert.True(t, RemotePeer{}.IsNull())
	peer := NewRemotePeer(0x2a)
	assert.False(t, peer.IsNull())
	assert.Equal(t, uint64(0x2a), uint64(peer.Ref()))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "Outgoing", DirectionOutgoing.String())
	assert.Equal(t, "Incoming", DirectionIncoming.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
}

func TestICECandidateFromInit(t *testing.T) {
	mid := "audio"
	idx := uint16(2)
	got := ICECandidateFromInit(webrtc.ICECandidateInit{
		Candidate:     "candidate:842163049 1 udp 1677729535 198.51.100.7 46154 typ srflx",
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	})
	assert.Equal(t, ICECandidate{
		SDPMid:        "audio",
		SDPMLineIndex: 2,
		SDP:           "candidate:842163049 1 udp 1677729535 198.51.100.7 46154 typ srflx",
	}, got)

	bare := ICECandidateFromInit(webrtc.ICECandidateInit{Candidate: "candidate:1"})
	assert.Equal(t, ICECandidate{SDP: "candidate:1"}, bare)
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("boom")

	res := fmt.Errorf("on event: %w", &ResolutionError{Target: "T", Method: "m", Signature: "()V", Err: cause})
	assert.ErrorIs(t, res, ErrResolution)
	assert.ErrorIs(t, res, cause)
	assert.NotErrorIs(t, res, ErrInvocation)
	assert.Contains(t, res.Error(), "T.m()V")

	inv := &InvocationError{Method: "onSendBusy", Signature: "(J)V", Err: cause}
	assert.ErrorIs(t, inv, ErrInvocation)
	assert.Equal(t, "call onSendBusy(J)V: boom", inv.Error())

	att := &AttachError{ThreadID: 42, Err: cause}
	assert.ErrorIs(t, att, ErrAttach)
	assert.Equal(t, "attach thread 42: boom", att.Error())
}

func TestNativeRegistry(t *testing.T) {
	before := NativeCount()
	id := registerNative("payload")
	other := registerNative("other")
	assert.NotEqual(t, id, other)
	assert.NotZero(t, id)

	v, ok := LookupNative(id)
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	_, ok = LookupConnection(id)
	assert.False(t, ok, "wrong type must not resolve")
	_, ok = LookupMediaStream(id)
	assert.False(t, ok)

	unregisterNative(id)
	unregisterNative(other)
	_, ok = LookupNative(id)
	assert.False(t, ok)
	assert.Equal(t, before, NativeCount())

	again := registerNative("again")
	defer unregisterNative(again)
	assert.Greater(t, again, other, "ids are never reused")
}

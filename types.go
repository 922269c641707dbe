package callbridge

import (
	"fmt"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/pion/webrtc/v3"
)

// CallID is the engine-assigned identifier of a call. It is unique for the
// lifetime of the call within the process and never changes.
type CallID uint64

// String renders the id in hex, the way call ids appear in engine logs.
func (c CallID) String() string {
	return fmt.Sprintf("0x%x", uint64(c))
}

// wire returns the id as the signed 64-bit slot it crosses the boundary in.
// The bit pattern is preserved, so ids at or above 2^63 survive intact.
func (c CallID) wire() int64 {
	return int64(c)
}

// DeviceID identifies one remote participant device within a call.
type DeviceID uint32

func (d DeviceID) wire() int32 {
	return int32(d)
}

// ConnectionID identifies one native connection: a call plus a remote device.
type ConnectionID struct {
	callID CallID
	device DeviceID
}

// NewConnectionID pairs a call id with a remote device id.
func NewConnectionID(callID CallID, device DeviceID) ConnectionID {
	return ConnectionID{callID: callID, device: device}
}

// CallID returns the call component.
func (c ConnectionID) CallID() CallID { return c.callID }

// RemoteDevice returns the device component.
func (c ConnectionID) RemoteDevice() DeviceID { return c.device }

// String renders "<call>-<device>".
func (c ConnectionID) String() string {
	return fmt.Sprintf("%s-%d", c.callID, c.device)
}

// RemotePeer is a host-owned reference to a call participant. The bridge
// borrows it for the duration of a call and never frees it. Two RemotePeer
// values can only be compared for identity through Platform.CompareRemotes;
// the type does not support ==.
type RemotePeer struct {
	_   [0]func()
	ref interfaces.Ref
}

// NewRemotePeer wraps a host reference to a remote participant.
func NewRemotePeer(ref interfaces.Ref) RemotePeer {
	return RemotePeer{ref: ref}
}

// Ref returns the borrowed host reference.
func (r RemotePeer) Ref() interfaces.Ref { return r.ref }

// IsNull reports whether the peer carries no host reference.
func (r RemotePeer) IsNull() bool { return r.ref.IsNull() }

// Direction tells whether a call was placed or received.
type Direction uint8

const (
	// DirectionOutgoing is a call placed by the local user
	DirectionOutgoing Direction = iota
	// DirectionIncoming is a call received from a remote peer
	DirectionIncoming
)

// String returns a readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionOutgoing:
		return "Outgoing"
	case DirectionIncoming:
		return "Incoming"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Event is an application-facing call event. The numeric value is the
// ordinal handed to the host, which maps it onto its own enumeration.
type Event int32

// Application events, in ordinal order.
const (
	EventLocalRinging Event = iota
	EventRemoteRinging
	EventLocalConnected
	EventRemoteConnected
	EventEndedLocalHangup
	EventEndedRemoteHangup
	EventEndedRemoteBusy
	EventEndedRemoteGlare
	EventEndedTimeout
	EventEndedInternalFailure
	EventEndedSignalingFailure
	EventEndedConnectionFailure
	EventEndedAppDroppedCall
	EventRemoteVideoEnable
	EventRemoteVideoDisable
	EventReconnecting
	EventReconnected
	EventEndedReceivedOfferExpired
	EventEndedReceivedOfferWhileActive
	eventCount
)

var eventNames = [...]string{
	EventLocalRinging:                  "LocalRinging",
	EventRemoteRinging:                 "RemoteRinging",
	EventLocalConnected:                "LocalConnected",
	EventRemoteConnected:               "RemoteConnected",
	EventEndedLocalHangup:              "EndedLocalHangup",
	EventEndedRemoteHangup:             "EndedRemoteHangup",
	EventEndedRemoteBusy:               "EndedRemoteBusy",
	EventEndedRemoteGlare:              "EndedRemoteGlare",
	EventEndedTimeout:                  "EndedTimeout",
	EventEndedInternalFailure:          "EndedInternalFailure",
	EventEndedSignalingFailure:         "EndedSignalingFailure",
	EventEndedConnectionFailure:        "EndedConnectionFailure",
	EventEndedAppDroppedCall:           "EndedAppDroppedCall",
	EventRemoteVideoEnable:             "RemoteVideoEnable",
	EventRemoteVideoDisable:            "RemoteVideoDisable",
	EventReconnecting:                  "Reconnecting",
	EventReconnected:                   "Reconnected",
	EventEndedReceivedOfferExpired:     "EndedReceivedOfferExpired",
	EventEndedReceivedOfferWhileActive: "EndedReceivedOfferWhileActive",
}

// Events returns every defined event in ordinal order.
func Events() []Event {
	events := make([]Event, 0, eventCount)
	for e := Event(0); e < eventCount; e++ {
		events = append(events, e)
	}
	return events
}

// String returns the event name.
func (e Event) String() string {
	if e >= 0 && e < eventCount {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int32(e))
}

// ICECandidate is one trickled ICE candidate bound for the remote peer.
type ICECandidate struct {
	SDPMid        string
	SDPMLineIndex int32
	SDP           string
}

// ICECandidateFromInit converts a pion candidate. A missing mid becomes the
// empty string and a missing m-line index becomes 0.
func ICECandidateFromInit(init webrtc.ICECandidateInit) ICECandidate {
	c := ICECandidate{SDP: init.Candidate}
	if init.SDPMid != nil {
		c.SDPMid = *init.SDPMid
	}
	if init.SDPMLineIndex != nil {
		c.SDPMLineIndex = int32(*init.SDPMLineIndex)
	}
	return c
}

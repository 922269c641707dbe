package callbridge

// Platform is what the call engine sees of the host application. Every
// method is a synchronous boundary call; the engine decides what a failure
// means for the call.
type Platform interface {
	// CreateConnection asks the host for a connection object and attaches it
	// to a new native connection for call and remote.
	CreateConnection(call *Call, remote DeviceID) (*Connection, error)

	OnStartCall(remote RemotePeer, callID CallID, direction Direction) error
	OnEvent(remote RemotePeer, event Event) error

	OnSendOffer(remote RemotePeer, connectionID ConnectionID, broadcast bool, description string) error
	OnSendAnswer(remote RemotePeer, connectionID ConnectionID, broadcast bool, description string) error
	OnSendICECandidates(remote RemotePeer, connectionID ConnectionID, broadcast bool, candidates []ICECandidate) error
	OnSendHangup(remote RemotePeer, connectionID ConnectionID, broadcast bool) error
	OnSendBusy(remote RemotePeer, connectionID ConnectionID, broadcast bool) error

	CreateMediaStream(conn *Connection, stream *MediaStream) (*MediaStreamHandle, error)
	OnConnectMedia(remote RemotePeer, ctx *CallContext, stream *MediaStreamHandle) error
	OnCloseMedia(ctx *CallContext) error

	// CompareRemotes reports whether two remote peers are the same host
	// object. Remote peers have no native identity.
	CompareRemotes(a, b RemotePeer) (bool, error)

	OnCallConcluded(remote RemotePeer) error
}

var _ Platform = (*Adapter)(nil)

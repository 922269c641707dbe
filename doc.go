// Package callbridge connects a native call engine to a managed host
// application runtime.
//
// The call engine drives call state, signaling and media negotiation. It
// reports everything the application has to act on through the [Platform]
// interface. [Adapter] implements Platform by turning each operation into a
// synchronous call on the host's call manager object, marshaling ids,
// enumerations, strings and candidate lists on the way.
//
// # Getting Started
//
// Build an adapter from a host runtime and the host's call manager object:
//
//	cfg, err := callbridge.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt, err := factory.NewHostRuntimeFactory().CreateHostRuntime()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	adapter, err := callbridge.NewAdapter(rt, callManager, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Close()
//
//	ctx, err := adapter.NewCallContext(hostContext)
//	call := callbridge.NewCall(callID, callbridge.DirectionOutgoing, remote, ctx)
//	defer call.Close()
//
//	conn, err := adapter.CreateConnection(call, 1)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// # Threads
//
// Every Adapter method can be called from any goroutine. Before a boundary
// call the goroutine is locked to its OS thread, and the thread is attached
// to the host runtime as a daemon if it was not attached already. Attachment
// is per thread; no lock is held around the runtime.
//
// # Handles
//
// [CallContext] and [ConnectionHandle] own a global reference to a host
// object. Clone adds an owner and Release drops one. When the last owner is
// released the host close method runs exactly once, on whatever thread
// released it. An owner that is garbage collected without Release is
// released by a finalizer. If the releasing thread cannot attach, the close
// notification is skipped, logged at warning level and counted in
// [Stats].SkippedCloses.
//
// # Errors
//
// Failures are classified with errors.Is:
//
//   - [ErrResolution]: a host class or method is missing ([ResolutionError])
//   - [ErrInvocation]: the host call failed ([InvocationError])
//   - [ErrAttach]: the thread could not attach ([AttachError])
//   - [ErrNullConnection]: the host created no connection
//
// No Adapter method panics on a boundary failure.
package callbridge

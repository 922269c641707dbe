// Package interfaces defines the host runtime abstraction the call bridge
// crosses into.
//
// The host runtime is the managed object model on the other side of the
// boundary (a JVM in production). It is reached through two interfaces:
//
//   - [IHostRuntime] is the process-wide runtime binding. It hands out a
//     per-thread [IHostEnv], attaching the calling OS thread on request.
//   - [IHostEnv] performs boundary calls on behalf of exactly one OS thread:
//     class lookup, object construction, instance and static method calls,
//     string creation and reference management.
//
// Both a simulated in-memory runtime (testing package) and a JNI-backed
// runtime (real package) implement these interfaces; the factory package
// selects one from [HostRuntimeConfig]:
//
//	factory := factory.NewHostRuntimeFactory()
//	runtime, err := factory.CreateHostRuntime()
//	if err != nil {
//	    log.Fatalf("host runtime unavailable: %v", err)
//	}
//
// # References
//
// Host objects are identified by opaque [Ref] values. The zero Ref is the
// null reference. References returned by an env are local to the calling
// thread until promoted with NewGlobalRef; global references stay valid on
// every thread until DeleteGlobalRef.
//
// # Method Signatures
//
// Methods are addressed by name plus a type signature in the host's
// descriptor syntax, for example "(JLorg/callbridge/Remote;IZ)V". Use
// [MethodSignature] and [ClassType] to build them and [ReturnKind] /
// [ParamKinds] to inspect them. A method whose name or signature does not
// match the host is a hard failure ([ErrNoSuchMethod]).
//
// # Thread Safety
//
// An IHostRuntime is safe for concurrent use. An IHostEnv is bound to the OS
// thread it was obtained on; callers must keep the goroutine locked to that
// thread (runtime.LockOSThread) for as long as they use the env.
package interfaces

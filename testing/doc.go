// Package testing provides a simulated host runtime for deterministic testing
// of the call bridge.
//
// # Overview
//
// SimulatedHostRuntime implements interfaces.IHostRuntime entirely in memory.
// It models the parts of a managed object model the bridge relies on:
// classes with constructors, instance and static methods addressed by name
// and signature, host strings, ordered lists, local and global references,
// and per-OS-thread attachment.
//
// # Simulation vs Real Implementation
//
//   - Simulation (this package): classes are defined in Go by the test and
//     every boundary call is recorded in an invocation log.
//   - Real (real package): calls go through the JNI function table of a JVM
//     loaded into the process.
//
// Both conform to interfaces.IHostRuntime and are selected via the factory
// package.
//
// # Usage
//
//	rt := testing.NewSimulatedHostRuntime()
//	rt.DefineClass("org/example/Greeter").
//	    Method("greet", "(Ljava/lang/String;)V", func(env interfaces.IHostEnv, self *testing.SimObject, args []interfaces.Value) (interfaces.Value, error) {
//	        return interfaces.Void(), nil
//	    })
//	greeter, _ := rt.NewInstance("org/example/Greeter", nil)
//
//	runtime.LockOSThread()
//	env, _ := rt.AttachCurrentThreadAsDaemon()
//	name, _ := env.NewString("alice")
//	_, err := env.CallMethod(greeter, "greet", "(Ljava/lang/String;)V", interfaces.Object(name))
//	runtime.UnlockOSThread()
//
// # Invocation Logs
//
// Every constructor, instance and static call is appended to the log as an
// InvocationRecord holding the class, method, signature, arguments, OS
// thread id and error. Use GetInvocationLog / Invocations to inspect it and
// ClearInvocationLog to reset between test cases.
//
// # Threads
//
// Attachment is tracked per OS thread id. An env obtained on one thread
// refuses calls made from another one (ErrWrongThread), which surfaces
// callers that forgot to lock their goroutine to its thread.
//
// # Thread Safety
//
// All methods on SimulatedHostRuntime are safe for concurrent use from
// multiple goroutines. Internal synchronization uses sync.RWMutex; user
// method bodies run without the lock held so they may call back into the env.
package testing

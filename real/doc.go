// Package real provides the production host runtime: a Java virtual machine
// reached through the JNI invocation API.
//
// JavaRuntime implements interfaces.IHostRuntime without cgo. The JVM shared
// library is opened with purego and the JNI function tables are called
// through function pointers read from the JavaVM and JNIEnv structures.
//
// # Usage
//
// In a process where the JVM loaded the bridge (the usual Android or
// desktop embedding), bind to the running VM:
//
//	rt, err := real.NewJavaRuntime(interfaces.HostRuntimeConfig{
//	    JNIVersion: interfaces.JNIVersion1_6,
//	})
//
// When the host hands over its JavaVM pointer directly, skip the library
// lookup:
//
//	rt, err := real.NewJavaRuntimeFromVM(vm, interfaces.JNIVersion1_6)
//
// The package is typically instantiated via the factory package, which
// chooses between this runtime and the simulation.
//
// # Threads
//
// A JNIEnv is only valid on the OS thread it was obtained on. Callers must
// keep the goroutine locked to its thread while using an env, as the
// callbridge attachment manager does. Attached threads are daemons and are
// never detached.
//
// # Platforms
//
// Linux and macOS on amd64 and arm64. Elsewhere NewJavaRuntime returns
// interfaces.ErrRuntimeUnavailable.
package real

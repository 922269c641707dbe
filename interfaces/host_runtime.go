package interfaces

import (
	"errors"
	"fmt"
)

// IHostRuntime is the process-wide binding into the host runtime.
type IHostRuntime interface {
	// GetEnv returns the env of the calling OS thread.
	// It returns ErrDetached if the thread is not attached.
	GetEnv() (IHostEnv, error)

	// AttachCurrentThreadAsDaemon attaches the calling OS thread as a
	// background participant that does not keep the runtime alive.
	AttachCurrentThreadAsDaemon() (IHostEnv, error)

	// IsSimulation returns true if this is a simulation implementation
	IsSimulation() bool
}

// IHostEnv performs boundary calls for a single attached OS thread.
type IHostEnv interface {
	// FindClass resolves a class by its fully qualified slash-separated name.
	FindClass(name string) (Ref, error)

	// NewObject constructs an instance of class using the constructor with
	// the given signature.
	NewObject(class Ref, ctorSig string, args ...Value) (Ref, error)

	// CallMethod invokes an instance method on obj.
	CallMethod(obj Ref, name, sig string, args ...Value) (Value, error)

	// CallStaticMethod invokes a static method on class.
	CallStaticMethod(class Ref, name, sig string, args ...Value) (Value, error)

	// NewString creates a host string holding s.
	NewString(s string) (Ref, error)

	// NewGlobalRef promotes obj to a reference valid on every thread.
	NewGlobalRef(obj Ref) (Ref, error)

	// DeleteGlobalRef releases a reference returned by NewGlobalRef.
	DeleteGlobalRef(obj Ref)

	// DeleteLocalRef releases a thread-local reference early.
	DeleteLocalRef(obj Ref)
}

// Host-side sentinel errors.
var (
	// ErrDetached indicates the calling thread is not attached to the runtime.
	ErrDetached = errors.New("thread not attached to host runtime")

	// ErrNoSuchClass indicates a class name could not be resolved.
	ErrNoSuchClass = errors.New("no such class")

	// ErrNoSuchMethod indicates a method name/signature pair could not be resolved.
	ErrNoSuchMethod = errors.New("no such method")

	// ErrWrongValueType indicates a value was read as a different kind than it holds.
	ErrWrongValueType = errors.New("wrong value type")

	// ErrHostException indicates the host raised an exception during a call.
	ErrHostException = errors.New("host exception")

	// ErrNullReference indicates a null reference was used where an object was required.
	ErrNullReference = errors.New("null reference")

	// ErrUnsupportedType indicates a signature uses a type the bridge does not marshal.
	ErrUnsupportedType = errors.New("unsupported signature type")

	// ErrRuntimeUnavailable indicates no host runtime could be located or loaded.
	ErrRuntimeUnavailable = errors.New("host runtime unavailable")
)

// Configuration errors.
var (
	// ErrInvalidJNIVersion indicates a JNI version below 1.2 was requested.
	ErrInvalidJNIVersion = errors.New("invalid JNI version")
)

// JNI versions accepted by HostRuntimeConfig.
const (
	JNIVersion1_2 int32 = 0x00010002
	JNIVersion1_6 int32 = 0x00010006
	JNIVersion1_8 int32 = 0x00010008
)

// HostRuntimeConfig holds configuration for host runtime implementations
type HostRuntimeConfig struct {
	// UseSimulation determines whether to use the in-memory runtime or a real JVM
	UseSimulation bool `env:"CALLBRIDGE_USE_SIMULATION" envDefault:"false"`

	// LibraryPath is the JVM shared library to load; empty means search the
	// standard locations.
	LibraryPath string `env:"CALLBRIDGE_JVM_LIBRARY"`

	// JNIVersion is the interface version requested from GetEnv.
	JNIVersion int32 `env:"CALLBRIDGE_JNI_VERSION" envDefault:"65542"`
}

// Validate checks the configuration for values no runtime can honour.
func (c *HostRuntimeConfig) Validate() error {
	if c.UseSimulation {
		return nil
	}
	if c.JNIVersion < JNIVersion1_2 {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidJNIVersion, c.JNIVersion)
	}
	return nil
}

//go:build !((linux || darwin) && (amd64 || arm64))

package real

import (
	"fmt"
	"runtime"

	"github.com/opd-ai/callbridge/interfaces"
)

// JavaRuntime is unavailable on this platform.
type JavaRuntime struct{}

// NewJavaRuntime always fails on this platform.
func NewJavaRuntime(cfg interfaces.HostRuntimeConfig) (*JavaRuntime, error) {
	return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrRuntimeUnavailable, runtime.GOOS, runtime.GOARCH)
}

// NewJavaRuntimeFromVM always fails on this platform.
func NewJavaRuntimeFromVM(vm uintptr, version int32) (*JavaRuntime, error) {
	return NewJavaRuntime(interfaces.HostRuntimeConfig{JNIVersion: version})
}

// GetEnv implements IHostRuntime.GetEnv
func (r *JavaRuntime) GetEnv() (interfaces.IHostEnv, error) {
	return nil, interfaces.ErrRuntimeUnavailable
}

// AttachCurrentThreadAsDaemon implements IHostRuntime.AttachCurrentThreadAsDaemon
func (r *JavaRuntime) AttachCurrentThreadAsDaemon() (interfaces.IHostEnv, error) {
	return nil, interfaces.ErrRuntimeUnavailable
}

// IsSimulation implements IHostRuntime.IsSimulation
func (r *JavaRuntime) IsSimulation() bool {
	return false
}

package factory

import (
	"os"
	"testing"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the factory variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CALLBRIDGE_USE_SIMULATION", "CALLBRIDGE_JVM_LIBRARY", "CALLBRIDGE_JNI_VERSION"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewHostRuntimeFactoryDefaults(t *testing.T) {
	clearEnv(t)
	f := NewHostRuntimeFactory()

	config := f.GetCurrentConfig()
	assert.False(t, config.UseSimulation)
	assert.Empty(t, config.LibraryPath)
	assert.False(t, f.IsUsingSimulation())
}

func TestEnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantSim     bool
		wantLibrary string
		wantVersion int32
	}{
		{
			name:        "simulation enabled",
			env:         map[string]string{"CALLBRIDGE_USE_SIMULATION": "true"},
			wantSim:     true,
			wantVersion: interfaces.JNIVersion1_6,
		},
		{
			name: "library and version",
			env: map[string]string{
				"CALLBRIDGE_JVM_LIBRARY": "/opt/jdk/lib/server/libjvm.so",
				"CALLBRIDGE_JNI_VERSION": "65544",
			},
			wantLibrary: "/opt/jdk/lib/server/libjvm.so",
			wantVersion: interfaces.JNIVersion1_8,
		},
		{
			name:        "unparseable boolean keeps defaults",
			env:         map[string]string{"CALLBRIDGE_USE_SIMULATION": "perhaps"},
			wantVersion: interfaces.JNIVersion1_6,
		},
		{
			name:        "version below 1.2 keeps defaults",
			env:         map[string]string{"CALLBRIDGE_JNI_VERSION": "65537"},
			wantVersion: interfaces.JNIVersion1_6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			config := NewHostRuntimeFactory().GetCurrentConfig()
			assert.Equal(t, tt.wantSim, config.UseSimulation)
			assert.Equal(t, tt.wantLibrary, config.LibraryPath)
			assert.Equal(t, tt.wantVersion, config.JNIVersion)
		})
	}
}

func TestCreateHostRuntimeSimulation(t *testing.T) {
	clearEnv(t)
	f := NewHostRuntimeFactory()
	f.SwitchToSimulation()
	assert.True(t, f.IsUsingSimulation())

	rt, err := f.CreateHostRuntime()
	require.NoError(t, err)
	assert.True(t, rt.IsSimulation())

	f.SwitchToReal()
	assert.False(t, f.IsUsingSimulation())
}

func TestCreateHostRuntimeRealWithoutJVM(t *testing.T) {
	clearEnv(t)
	f := NewHostRuntimeFactory()

	_, err := f.CreateHostRuntimeWithConfig(&interfaces.HostRuntimeConfig{
		LibraryPath: "/nonexistent/libjvm.so",
		JNIVersion:  interfaces.JNIVersion1_6,
	})
	assert.ErrorIs(t, err, interfaces.ErrRuntimeUnavailable)

	_, err = f.CreateHostRuntimeWithConfig(&interfaces.HostRuntimeConfig{JNIVersion: 1})
	assert.ErrorIs(t, err, interfaces.ErrInvalidJNIVersion)
}

func TestCreateSimulationForTesting(t *testing.T) {
	clearEnv(t)
	rt := NewHostRuntimeFactory().CreateSimulationForTesting()
	require.NotNil(t, rt)
	assert.True(t, rt.IsSimulation())
	rt.DefineClass("org/example/Thing")
}

func TestUpdateConfig(t *testing.T) {
	clearEnv(t)
	f := NewHostRuntimeFactory()

	assert.Error(t, f.UpdateConfig(nil))
	assert.ErrorIs(t, f.UpdateConfig(&interfaces.HostRuntimeConfig{JNIVersion: 0}), interfaces.ErrInvalidJNIVersion)

	update := &interfaces.HostRuntimeConfig{UseSimulation: true, LibraryPath: "/x/libjvm.so", JNIVersion: interfaces.JNIVersion1_8}
	require.NoError(t, f.UpdateConfig(update))
	update.LibraryPath = "mutated"

	got := f.GetCurrentConfig()
	assert.Equal(t, "/x/libjvm.so", got.LibraryPath, "factory keeps its own copy")
	assert.True(t, got.UseSimulation)

	got.UseSimulation = false
	assert.True(t, f.IsUsingSimulation(), "returned config is a copy")
}

// Package factory creates host runtime implementations for callbridge.
//
// The factory lets callers switch between the in-memory simulation (for
// tests and demos) and the JVM-backed runtime without changing the code
// that builds the platform adapter.
//
// # Configuration
//
// The factory reads its defaults from environment variables:
//   - CALLBRIDGE_USE_SIMULATION: "true" or "false" to enable simulation mode
//   - CALLBRIDGE_JVM_LIBRARY: path of the JVM shared library to open
//   - CALLBRIDGE_JNI_VERSION: JNI version requested from GetEnv, as an integer
//
// Values that fail to parse or validate are logged and the defaults are kept.
//
// # Usage
//
//	f := factory.NewHostRuntimeFactory()
//	rt, err := f.CreateHostRuntime()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing Support
//
// CreateSimulationForTesting returns a SimulatedHostRuntime directly, so
// tests can define host classes on it:
//
//	func TestMyFeature(t *testing.T) {
//	    rt := factory.NewHostRuntimeFactory().CreateSimulationForTesting()
//	    rt.DefineClass("org/example/Thing")
//	}
package factory

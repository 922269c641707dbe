package factory

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/opd-ai/callbridge/interfaces"
	"github.com/opd-ai/callbridge/real"
	"github.com/opd-ai/callbridge/testing"
	"github.com/sirupsen/logrus"
)

// HostRuntimeFactory creates host runtime implementations based on configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type HostRuntimeFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.HostRuntimeConfig
}

// NewHostRuntimeFactory creates a new factory with default configuration
// and CALLBRIDGE_* environment overrides applied.
func NewHostRuntimeFactory() *HostRuntimeFactory {
	config := createDefaultConfig()
	applyEnvironmentOverrides(config)
	logConfigurationInfo(config)

	return &HostRuntimeFactory{defaultConfig: config}
}

// createDefaultConfig returns the configuration used when no environment
// variables are set: the real runtime, requesting JNI 1.6.
func createDefaultConfig() *interfaces.HostRuntimeConfig {
	return &interfaces.HostRuntimeConfig{
		UseSimulation: false,
		JNIVersion:    interfaces.JNIVersion1_6,
	}
}

// applyEnvironmentOverrides parses the environment into a copy of config
// and keeps it only if it parses and validates.
func applyEnvironmentOverrides(config *interfaces.HostRuntimeConfig) {
	candidate := *config
	if err := env.Parse(&candidate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "applyEnvironmentOverrides",
			"error":    err.Error(),
		}).Warn("Failed to parse CALLBRIDGE_* environment variables, using defaults")
		return
	}
	if err := candidate.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "applyEnvironmentOverrides",
			"error":       err.Error(),
			"using_value": fmt.Sprintf("0x%08x", config.JNIVersion),
		}).Warn("CALLBRIDGE_* environment configuration invalid, using defaults")
		return
	}
	*config = candidate
}

func logConfigurationInfo(config *interfaces.HostRuntimeConfig) {
	logrus.WithFields(logrus.Fields{
		"function":       "NewHostRuntimeFactory",
		"use_simulation": config.UseSimulation,
		"library_path":   config.LibraryPath,
		"jni_version":    fmt.Sprintf("0x%08x", config.JNIVersion),
	}).Info("Created host runtime factory with configuration")
}

// CreateHostRuntime creates a host runtime based on the current configuration.
func (f *HostRuntimeFactory) CreateHostRuntime() (interfaces.IHostRuntime, error) {
	return f.CreateHostRuntimeWithConfig(nil)
}

// CreateHostRuntimeWithConfig creates a host runtime with custom configuration.
// A nil config uses the factory default.
func (f *HostRuntimeFactory) CreateHostRuntimeWithConfig(config *interfaces.HostRuntimeConfig) (interfaces.IHostRuntime, error) {
	if config == nil {
		config = f.GetCurrentConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":       "CreateHostRuntimeWithConfig",
		"use_simulation": config.UseSimulation,
	}).Info("Creating host runtime implementation")

	if config.UseSimulation {
		return testing.NewSimulatedHostRuntime(), nil
	}

	rt, err := real.NewJavaRuntime(*config)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CreateHostRuntimeWithConfig",
			"error":    err.Error(),
		}).Error("Failed to create Java runtime")
		return nil, err
	}
	return rt, nil
}

// CreateSimulationForTesting creates a simulated runtime regardless of the
// factory configuration.
func (f *HostRuntimeFactory) CreateSimulationForTesting() *testing.SimulatedHostRuntime {
	logrus.WithFields(logrus.Fields{
		"function": "CreateSimulationForTesting",
	}).Info("Creating simulation host runtime for testing")

	return testing.NewSimulatedHostRuntime()
}

// SwitchToSimulation switches the configuration to use simulation
func (f *HostRuntimeFactory) SwitchToSimulation() {
	f.setSimulation(true)
}

// SwitchToReal switches the configuration to use the JVM runtime
func (f *HostRuntimeFactory) SwitchToReal() {
	f.setSimulation(false)
}

func (f *HostRuntimeFactory) setSimulation(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "HostRuntimeFactory.setSimulation",
		"previous": f.defaultConfig.UseSimulation,
		"current":  enabled,
	}).Info("Switching factory runtime mode")

	f.defaultConfig.UseSimulation = enabled
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *HostRuntimeFactory) GetCurrentConfig() *interfaces.HostRuntimeConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	config := *f.defaultConfig
	return &config
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *HostRuntimeFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.UseSimulation
}

// UpdateConfig replaces the factory's default configuration
func (f *HostRuntimeFactory) UpdateConfig(config *interfaces.HostRuntimeConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.defaultConfig.UseSimulation,
		"new_simulation": config.UseSimulation,
	}).Info("Updating factory configuration")

	copied := *config
	f.defaultConfig = &copied
	return nil
}

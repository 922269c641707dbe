package callbridge

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// Config names the host classes the bridge talks to and sets up logging.
// Method names and signatures are derived from the class names and are
// fixed; a host that does not match them fails at the first call.
type Config struct {
	// Package is the slash-separated host package of the call manager types.
	Package string `env:"CALLBRIDGE_PACKAGE" envDefault:"org/callbridge"`

	// CallManagerClass is the simple name of the host call manager class.
	// CallContext and CallEvent are nested classes of it.
	CallManagerClass string `env:"CALLBRIDGE_CALL_MANAGER_CLASS" envDefault:"CallManager"`

	// ConnectionClass is the simple name of the host per-connection class.
	ConnectionClass string `env:"CALLBRIDGE_CONNECTION_CLASS" envDefault:"Connection"`

	// RemoteClass is the simple name of the host remote peer class.
	RemoteClass string `env:"CALLBRIDGE_REMOTE_CLASS" envDefault:"Remote"`

	// ICECandidateClass is the fully qualified host ICE candidate class.
	ICECandidateClass string `env:"CALLBRIDGE_ICE_CANDIDATE_CLASS" envDefault:"org/webrtc/IceCandidate"`

	// MediaStreamClass is the fully qualified host media stream class.
	MediaStreamClass string `env:"CALLBRIDGE_MEDIA_STREAM_CLASS" envDefault:"org/webrtc/MediaStream"`

	// ListClass is the ordered collection built for candidate batches.
	ListClass string `env:"CALLBRIDGE_LIST_CLASS" envDefault:"java/util/LinkedList"`

	// LogLevel is a logrus level name.
	LogLevel string `env:"CALLBRIDGE_LOG_LEVEL" envDefault:"info"`

	// JSONLogs switches logrus to the JSON formatter.
	JSONLogs bool `env:"CALLBRIDGE_JSON_LOGS" envDefault:"false"`
}

// defaultConfig holds the envDefault values, parsed once against an empty
// environment. defaultConfigErr is non-nil only if a struct tag is malformed.
var defaultConfig, defaultConfigErr = parseDefaults()

func parseDefaults() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return Config{}, fmt.Errorf("%w: defaults: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration with every default applied and
// the process environment ignored.
func DefaultConfig() Config {
	return defaultConfig
}

// LoadConfig reads the configuration from CALLBRIDGE_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logrus.WithFields(logrus.Fields{
		"function":     "LoadConfig",
		"package":      cfg.Package,
		"call_manager": cfg.CallManagerClass,
		"log_level":    cfg.LogLevel,
	}).Debug("Loaded bridge configuration")
	return cfg, nil
}

// Validate rejects empty class names and unknown log levels.
func (c Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"Package", c.Package},
		{"CallManagerClass", c.CallManagerClass},
		{"ConnectionClass", c.ConnectionClass},
		{"RemoteClass", c.RemoteClass},
		{"ICECandidateClass", c.ICECandidateClass},
		{"MediaStreamClass", c.MediaStreamClass},
		{"ListClass", c.ListClass},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, r.field)
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigureLogging applies LogLevel and JSONLogs to the standard logrus logger.
func ConfigureLogging(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	logrus.SetLevel(level)
	if cfg.JSONLogs {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

func (c Config) qualified(name string) string {
	return c.Package + "/" + name
}

// CallManagerClassName returns the fully qualified call manager class.
func (c Config) CallManagerClassName() string { return c.qualified(c.CallManagerClass) }

// CallContextClassName returns the fully qualified call context class.
func (c Config) CallContextClassName() string { return c.CallManagerClassName() + "$CallContext" }

// CallEventClassName returns the fully qualified call event enumeration.
func (c Config) CallEventClassName() string { return c.CallManagerClassName() + "$CallEvent" }

// ConnectionClassName returns the fully qualified connection class.
func (c Config) ConnectionClassName() string { return c.qualified(c.ConnectionClass) }

// RemoteClassName returns the fully qualified remote peer class.
func (c Config) RemoteClassName() string { return c.qualified(c.RemoteClass) }

// hostMethod is a method name with its exact signature.
type hostMethod struct {
	name string
	sig  string
}

// hostMethods is the fixed boundary contract derived from a Config.
type hostMethods struct {
	createConnection    hostMethod
	closeCall           hostMethod
	closeConnection     hostMethod
	onStartCall         hostMethod
	onEvent             hostMethod
	onSendOffer         hostMethod
	onSendAnswer        hostMethod
	onSendICECandidates hostMethod
	onSendHangup        hostMethod
	onSendBusy          hostMethod
	onConnectMedia      hostMethod
	onCloseMedia        hostMethod
	compareRemotes      hostMethod
	onCallConcluded     hostMethod

	eventFromIndex   hostMethod // static on the CallEvent class
	listAdd          hostMethod
	listCtor         string
	iceCandidateCtor string
	mediaStreamCtor  string
}

func newHostMethods(c Config) hostMethods {
	var (
		remote     = interfaces.ClassType(c.RemoteClassName())
		context    = interfaces.ClassType(c.CallContextClassName())
		event      = interfaces.ClassType(c.CallEventClassName())
		connection = interfaces.ClassType(c.ConnectionClassName())
		stream     = interfaces.ClassType(c.MediaStreamClass)
		sig        = interfaces.MethodSignature
	)
	const (
		v   = interfaces.TypeVoid
		z   = interfaces.TypeBoolean
		i   = interfaces.TypeInt
		j   = interfaces.TypeLong
		str = interfaces.TypeString
	)

	return hostMethods{
		createConnection:    hostMethod{"createConnection", sig(connection, j, j, i, context)},
		closeCall:           hostMethod{"closeCall", sig(v, context)},
		closeConnection:     hostMethod{"closeConnection", sig(v, connection)},
		onStartCall:         hostMethod{"onStartCall", sig(v, remote, j, z)},
		onEvent:             hostMethod{"onEvent", sig(v, remote, event)},
		onSendOffer:         hostMethod{"onSendOffer", sig(v, j, remote, i, z, str)},
		onSendAnswer:        hostMethod{"onSendAnswer", sig(v, j, remote, i, z, str)},
		onSendICECandidates: hostMethod{"onSendIceCandidates", sig(v, j, remote, i, z, interfaces.TypeList)},
		onSendHangup:        hostMethod{"onSendHangup", sig(v, j, remote, i, z)},
		onSendBusy:          hostMethod{"onSendBusy", sig(v, j, remote, i, z)},
		onConnectMedia:      hostMethod{"onConnectMedia", sig(v, context, stream)},
		onCloseMedia:        hostMethod{"onCloseMedia", sig(v, context)},
		compareRemotes:      hostMethod{"compareRemotes", sig(z, remote, remote)},
		onCallConcluded:     hostMethod{"onCallConcluded", sig(v, remote)},

		eventFromIndex:   hostMethod{"fromNativeIndex", sig(event, i)},
		listAdd:          hostMethod{"add", sig(z, interfaces.TypeObject)},
		listCtor:         sig(v),
		iceCandidateCtor: sig(v, str, i, str),
		mediaStreamCtor:  sig(v, j),
	}
}

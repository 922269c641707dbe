package callbridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// binding is the state every clone of an Adapter shares: the runtime, the
// call manager reference and the descriptor cache. It is torn down when the
// last Adapter owner closes.
type binding struct {
	runtime     interfaces.IHostRuntime
	attach      *attacher
	callManager interfaces.Ref
	classes     *classCache
	methods     hostMethods
	cfg         Config
	stats       *boundaryStats

	owners atomic.Int64
	once   sync.Once
}

// Adapter implements Platform on top of a host runtime. An Adapter value is
// one owner of the shared binding; Clone adds owners and Close drops them.
// All methods are safe to call from any goroutine.
type Adapter struct {
	b      *binding
	closed atomic.Bool
}

// NewAdapter binds to the host call manager object and resolves the classes
// needed at call time. callManager may be a local reference; the adapter
// keeps its own global reference.
func NewAdapter(rt interfaces.IHostRuntime, callManager interfaces.Ref, cfg Config) (*Adapter, error) {
	logrus.WithFields(logrus.Fields{
		"function":     "NewAdapter",
		"call_manager": cfg.CallManagerClassName(),
		"simulation":   rt != nil && rt.IsSimulation(),
	}).Info("Creating platform adapter")

	if rt == nil {
		return nil, fmt.Errorf("%w: nil host runtime", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if callManager.IsNull() {
		return nil, fmt.Errorf("call manager: %w", ErrNullObject)
	}

	b := &binding{
		runtime: rt,
		methods: newHostMethods(cfg),
		cfg:     cfg,
		stats:   &boundaryStats{},
	}
	b.attach = &attacher{runtime: rt, stats: b.stats}

	env, done, err := b.attach.acquire()
	if err != nil {
		return nil, err
	}
	defer done()

	b.callManager, err = env.NewGlobalRef(callManager)
	if err != nil {
		return nil, &InvocationError{Method: "NewGlobalRef", Err: err}
	}

	b.classes, err = newClassCache(env,
		cfg.CallEventClassName(),
		cfg.ICECandidateClass,
		cfg.MediaStreamClass,
		cfg.ListClass,
	)
	if err != nil {
		env.DeleteGlobalRef(b.callManager)
		logrus.WithFields(logrus.Fields{
			"function": "NewAdapter",
			"error":    err.Error(),
		}).Error("Failed to resolve host classes")
		return nil, err
	}

	b.owners.Store(1)
	return &Adapter{b: b}, nil
}

// Clone makes sure the calling thread is attached and returns another owner
// of the same binding. Nothing on the host side is duplicated.
func (a *Adapter) Clone() (*Adapter, error) {
	if a.closed.Load() {
		return nil, ErrAdapterClosed
	}
	_, done, err := a.b.attach.acquire()
	if err != nil {
		return nil, err
	}
	done()
	return a.cloneOwner()
}

func (a *Adapter) cloneOwner() (*Adapter, error) {
	for {
		n := a.b.owners.Load()
		if n <= 0 {
			return nil, ErrAdapterClosed
		}
		if a.b.owners.CompareAndSwap(n, n+1) {
			return &Adapter{b: a.b}, nil
		}
	}
}

// Close drops this owner. The last owner deletes the call manager reference
// and the cached classes. Closing twice has no further effect.
func (a *Adapter) Close() {
	if !a.closed.CompareAndSwap(false, true) {
		return
	}
	if a.b.owners.Add(-1) == 0 {
		a.b.once.Do(a.b.teardown)
	}
}

func (b *binding) teardown() {
	env, done, err := b.attach.acquire()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "binding.teardown",
			"error":    err.Error(),
		}).Warn("Skipping adapter teardown, thread could not attach")
		return
	}
	defer done()

	b.classes.release(env)
	env.DeleteGlobalRef(b.callManager)

	logrus.WithFields(logrus.Fields{
		"function": "binding.teardown",
	}).Info("Platform adapter released")
}

// Stats returns a snapshot of boundary activity across every clone.
func (a *Adapter) Stats() Stats {
	return a.b.stats.snapshot()
}

// Config returns the configuration the adapter was built with.
func (a *Adapter) Config() Config {
	return a.b.cfg
}

// withEnv runs fn on an attached thread.
func (a *Adapter) withEnv(fn func(env interfaces.IHostEnv) error) error {
	if a.closed.Load() {
		return ErrAdapterClosed
	}
	env, done, err := a.b.attach.acquire()
	if err != nil {
		return err
	}
	defer done()
	return fn(env)
}

// invokeManager calls m on the host call manager.
func (a *Adapter) invokeManager(env interfaces.IHostEnv, m hostMethod, args ...interfaces.Value) (interfaces.Value, error) {
	return a.invoke(env, a.b.callManager, a.b.cfg.CallManagerClassName(), m, args...)
}

// invoke calls an instance method and records it. A method the host does
// not have is a resolution failure; anything else is an invocation failure.
func (a *Adapter) invoke(env interfaces.IHostEnv, obj interfaces.Ref, class string, m hostMethod, args ...interfaces.Value) (interfaces.Value, error) {
	start := time.Now()
	v, err := env.CallMethod(obj, m.name, m.sig, args...)
	a.b.stats.observe(m.name, start, err)
	if err != nil {
		return interfaces.Void(), boundaryError(class, m, err)
	}
	return v, nil
}

// invokeStatic calls a static method on a cached class.
func (a *Adapter) invokeStatic(env interfaces.IHostEnv, class string, m hostMethod, args ...interfaces.Value) (interfaces.Value, error) {
	classRef, err := a.b.classes.get(class)
	if err != nil {
		return interfaces.Void(), err
	}
	start := time.Now()
	v, err := env.CallStaticMethod(classRef, m.name, m.sig, args...)
	a.b.stats.observe(m.name, start, err)
	if err != nil {
		return interfaces.Void(), boundaryError(class, m, err)
	}
	return v, nil
}

// construct instantiates a cached class and returns a local reference.
func (a *Adapter) construct(env interfaces.IHostEnv, class, ctorSig string, args ...interfaces.Value) (interfaces.Ref, error) {
	m := hostMethod{name: "<init>", sig: ctorSig}
	classRef, err := a.b.classes.get(class)
	if err != nil {
		return interfaces.Null, err
	}
	start := time.Now()
	obj, err := env.NewObject(classRef, ctorSig, args...)
	a.b.stats.observe(class+".<init>", start, err)
	if err != nil {
		return interfaces.Null, boundaryError(class, m, err)
	}
	if obj.IsNull() {
		return interfaces.Null, &InvocationError{Method: class + ".<init>", Signature: ctorSig, Err: ErrNullObject}
	}
	return obj, nil
}

// newString creates a host string as a local reference.
func (a *Adapter) newString(env interfaces.IHostEnv, s string) (interfaces.Ref, error) {
	ref, err := env.NewString(s)
	if err != nil {
		return interfaces.Null, &InvocationError{Method: "NewString", Err: err}
	}
	return ref, nil
}

func boundaryError(class string, m hostMethod, err error) error {
	if errors.Is(err, interfaces.ErrNoSuchMethod) || errors.Is(err, interfaces.ErrNoSuchClass) {
		return &ResolutionError{Target: class, Method: m.name, Signature: m.sig, Err: err}
	}
	return &InvocationError{Method: m.name, Signature: m.sig, Err: err}
}

package testing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// Built-in class names available in every simulated runtime.
const (
	ClassObject     = "java/lang/Object"
	ClassString     = "java/lang/String"
	ClassLinkedList = "java/util/LinkedList"
)

// ErrWrongThread indicates an env was used from an OS thread other than the
// one it was obtained on.
var ErrWrongThread = errors.New("env used from foreign thread")

// CtorFunc builds the payload of a new instance from constructor arguments.
type CtorFunc func(env interfaces.IHostEnv, args []interfaces.Value) (any, error)

// MethodFunc implements a simulated method. self is nil for static methods.
type MethodFunc func(env interfaces.IHostEnv, self *SimObject, args []interfaces.Value) (interfaces.Value, error)

// SimClass is a class defined in the simulated runtime.
type SimClass struct {
	Name    string
	rt      *SimulatedHostRuntime
	ctors   map[string]CtorFunc
	methods map[string]MethodFunc
	statics map[string]MethodFunc
}

// SimObject is an instance living in the simulated runtime. Several
// references may point at the same object.
type SimObject struct {
	Class *SimClass
	Value any
}

// SimList is the payload of a java/util/LinkedList instance.
type SimList struct {
	mu    sync.Mutex
	Items []*SimObject
}

// InvocationRecord represents a boundary call for testing verification
type InvocationRecord struct {
	Class     string
	Method    string
	Signature string
	Static    bool
	Args      []interfaces.Value
	ThreadID  int
	Err       error
}

type refEntry struct {
	obj    *SimObject
	class  *SimClass
	global bool
}

// SimulatedHostRuntime implements an in-memory host runtime for testing
type SimulatedHostRuntime struct {
	mu            sync.RWMutex
	classes       map[string]*SimClass
	refs          map[interfaces.Ref]*refEntry
	nextRef       interfaces.Ref
	attached      map[int]bool
	attachCount   int
	attachErr     error
	stringErr     error
	badDeletes    int
	invocationLog []InvocationRecord
}

// NewSimulatedHostRuntime creates a runtime holding only the built-in classes.
func NewSimulatedHostRuntime() *SimulatedHostRuntime {
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedHostRuntime",
	}).Info("Creating simulated host runtime")

	s := &SimulatedHostRuntime{
		classes:  make(map[string]*SimClass),
		refs:     make(map[interfaces.Ref]*refEntry),
		nextRef:  1,
		attached: make(map[int]bool),
	}
	s.DefineClass(ClassObject)
	s.DefineClass(ClassString)
	s.DefineClass(ClassLinkedList).
		Constructor("()V", func(interfaces.IHostEnv, []interfaces.Value) (any, error) {
			return &SimList{}, nil
		}).
		Method("add", "(Ljava/lang/Object;)Z", s.listAdd).
		Method("size", "()I", s.listSize)
	return s
}

// DefineClass registers a class, replacing any previous definition.
func (s *SimulatedHostRuntime) DefineClass(name string) *SimClass {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &SimClass{
		Name:    name,
		rt:      s,
		ctors:   make(map[string]CtorFunc),
		methods: make(map[string]MethodFunc),
		statics: make(map[string]MethodFunc),
	}
	s.classes[name] = c

	logrus.WithFields(logrus.Fields{
		"function": "SimulatedHostRuntime.DefineClass",
		"class":    name,
	}).Debug("Class defined in simulation")
	return c
}

// Constructor registers a constructor with the given signature.
func (c *SimClass) Constructor(sig string, fn CtorFunc) *SimClass {
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()
	c.ctors[sig] = fn
	return c
}

// Method registers an instance method.
func (c *SimClass) Method(name, sig string, fn MethodFunc) *SimClass {
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()
	c.methods[name+sig] = fn
	return c
}

// StaticMethod registers a static method.
func (c *SimClass) StaticMethod(name, sig string, fn MethodFunc) *SimClass {
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()
	c.statics[name+sig] = fn
	return c
}

// NewInstance creates an object of the named class and returns a global
// reference to it, usable from any thread.
func (s *SimulatedHostRuntime) NewInstance(className string, value any) (interfaces.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.classes[className]
	if !ok {
		return interfaces.Null, fmt.Errorf("%w: %s", interfaces.ErrNoSuchClass, className)
	}
	return s.allocLocked(&refEntry{obj: &SimObject{Class: c, Value: value}, global: true}), nil
}

// NewLocalRef returns a fresh local reference to an existing object, for
// method bodies that hand back objects they already hold.
func (s *SimulatedHostRuntime) NewLocalRef(obj *SimObject) interfaces.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocLocked(&refEntry{obj: obj})
}

// Resolve returns the object a reference points at.
func (s *SimulatedHostRuntime) Resolve(ref interfaces.Ref) (*SimObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.refs[ref]
	if !ok || e.obj == nil {
		return nil, false
	}
	return e.obj, true
}

// StringValue returns the contents of a host string reference.
func (s *SimulatedHostRuntime) StringValue(ref interfaces.Ref) (string, error) {
	obj, ok := s.Resolve(ref)
	if !ok {
		return "", fmt.Errorf("%w: 0x%x", interfaces.ErrNullReference, ref)
	}
	str, ok := obj.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", interfaces.ErrWrongValueType, obj.Class.Name)
	}
	return str, nil
}

// ListItems returns a snapshot of the elements of a list reference.
func (s *SimulatedHostRuntime) ListItems(ref interfaces.Ref) ([]*SimObject, error) {
	obj, ok := s.Resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", interfaces.ErrNullReference, ref)
	}
	list, ok := obj.Value.(*SimList)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", interfaces.ErrWrongValueType, obj.Class.Name)
	}
	list.mu.Lock()
	defer list.mu.Unlock()
	return append([]*SimObject(nil), list.Items...), nil
}

// SetAttachError makes subsequent attach requests fail with err; nil clears it.
func (s *SimulatedHostRuntime) SetAttachError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachErr = err
}

// SetStringError makes subsequent NewString calls fail with err; nil clears it.
func (s *SimulatedHostRuntime) SetStringError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stringErr = err
}

// DetachAll forgets every attached thread.
func (s *SimulatedHostRuntime) DetachAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = make(map[int]bool)
}

// AttachCount returns the number of successful attach requests.
func (s *SimulatedHostRuntime) AttachCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attachCount
}

// AttachedThreads returns the number of distinct attached OS threads.
func (s *SimulatedHostRuntime) AttachedThreads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attached)
}

// GlobalRefCount returns the number of live global references.
func (s *SimulatedHostRuntime) GlobalRefCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.refs {
		if e.global {
			n++
		}
	}
	return n
}

// LocalRefCount returns the number of live local references.
func (s *SimulatedHostRuntime) LocalRefCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.refs {
		if !e.global {
			n++
		}
	}
	return n
}

// BadDeletes returns how many deletes targeted unknown or mismatched references.
func (s *SimulatedHostRuntime) BadDeletes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.badDeletes
}

// GetInvocationLog returns a copy of the invocation log
func (s *SimulatedHostRuntime) GetInvocationLog() []InvocationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]InvocationRecord(nil), s.invocationLog...)
}

// Invocations returns the log entries for one method name.
func (s *SimulatedHostRuntime) Invocations(method string) []InvocationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []InvocationRecord
	for _, r := range s.invocationLog {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// ClearInvocationLog clears the invocation log
func (s *SimulatedHostRuntime) ClearInvocationLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invocationLog = nil
}

// GetEnv implements IHostRuntime.GetEnv
func (s *SimulatedHostRuntime) GetEnv() (interfaces.IHostEnv, error) {
	tid := interfaces.CurrentThreadID()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached[tid] {
		return nil, interfaces.ErrDetached
	}
	return &simEnv{rt: s, tid: tid}, nil
}

// AttachCurrentThreadAsDaemon implements IHostRuntime.AttachCurrentThreadAsDaemon
func (s *SimulatedHostRuntime) AttachCurrentThreadAsDaemon() (interfaces.IHostEnv, error) {
	tid := interfaces.CurrentThreadID()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attachErr != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "SimulatedHostRuntime.AttachCurrentThreadAsDaemon",
			"thread_id": tid,
			"error":     s.attachErr.Error(),
		}).Debug("Simulated attach failure")
		return nil, s.attachErr
	}
	if !s.attached[tid] {
		s.attached[tid] = true
		s.attachCount++
	}

	logrus.WithFields(logrus.Fields{
		"function":         "SimulatedHostRuntime.AttachCurrentThreadAsDaemon",
		"thread_id":        tid,
		"attached_threads": len(s.attached),
	}).Debug("Thread attached to simulation")
	return &simEnv{rt: s, tid: tid}, nil
}

// IsSimulation implements IHostRuntime.IsSimulation
func (s *SimulatedHostRuntime) IsSimulation() bool {
	return true
}

func (s *SimulatedHostRuntime) allocLocked(e *refEntry) interfaces.Ref {
	ref := s.nextRef
	s.nextRef++
	s.refs[ref] = e
	return ref
}

func (s *SimulatedHostRuntime) record(r InvocationRecord) {
	s.mu.Lock()
	s.invocationLog = append(s.invocationLog, r)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "SimulatedHostRuntime.record",
		"class":     r.Class,
		"method":    r.Method,
		"signature": r.Signature,
		"thread_id": r.ThreadID,
	}).Debug("Simulated boundary call")
}

func (s *SimulatedHostRuntime) listAdd(_ interfaces.IHostEnv, self *SimObject, args []interfaces.Value) (interfaces.Value, error) {
	ref, err := args[0].Object()
	if err != nil {
		return interfaces.Void(), err
	}
	item, _ := s.Resolve(ref)
	list := self.Value.(*SimList)
	list.mu.Lock()
	list.Items = append(list.Items, item)
	list.mu.Unlock()
	return interfaces.Bool(true), nil
}

func (s *SimulatedHostRuntime) listSize(_ interfaces.IHostEnv, self *SimObject, _ []interfaces.Value) (interfaces.Value, error) {
	list := self.Value.(*SimList)
	list.mu.Lock()
	defer list.mu.Unlock()
	return interfaces.Int(int32(len(list.Items))), nil
}

package testing

import (
	"fmt"

	"github.com/opd-ai/callbridge/interfaces"
)

// simEnv is the per-thread env handed out by SimulatedHostRuntime.
type simEnv struct {
	rt  *SimulatedHostRuntime
	tid int
}

func (e *simEnv) checkThread() error {
	if cur := interfaces.CurrentThreadID(); cur != e.tid {
		return fmt.Errorf("%w: env of thread %d used on thread %d", ErrWrongThread, e.tid, cur)
	}
	return nil
}

// FindClass implements IHostEnv.FindClass
func (e *simEnv) FindClass(name string) (interfaces.Ref, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Null, err
	}
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()

	c, ok := e.rt.classes[name]
	if !ok {
		return interfaces.Null, fmt.Errorf("%w: %s", interfaces.ErrNoSuchClass, name)
	}
	return e.rt.allocLocked(&refEntry{class: c}), nil
}

// NewObject implements IHostEnv.NewObject
func (e *simEnv) NewObject(class interfaces.Ref, ctorSig string, args ...interfaces.Value) (interfaces.Ref, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Null, err
	}
	c, err := e.classOf(class)
	if err != nil {
		return interfaces.Null, err
	}

	e.rt.mu.RLock()
	ctor, ok := c.ctors[ctorSig]
	e.rt.mu.RUnlock()

	rec := InvocationRecord{Class: c.Name, Method: "<init>", Signature: ctorSig, Args: args, ThreadID: e.tid}
	if !ok {
		rec.Err = fmt.Errorf("%w: %s.<init>%s", interfaces.ErrNoSuchMethod, c.Name, ctorSig)
		e.rt.record(rec)
		return interfaces.Null, rec.Err
	}
	if err := interfaces.CheckArgs(ctorSig, args); err != nil {
		rec.Err = err
		e.rt.record(rec)
		return interfaces.Null, err
	}

	value, err := ctor(e, args)
	if err != nil {
		rec.Err = fmt.Errorf("%w: %s.<init>: %v", interfaces.ErrHostException, c.Name, err)
		e.rt.record(rec)
		return interfaces.Null, rec.Err
	}
	e.rt.record(rec)

	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	return e.rt.allocLocked(&refEntry{obj: &SimObject{Class: c, Value: value}}), nil
}

// CallMethod implements IHostEnv.CallMethod
func (e *simEnv) CallMethod(obj interfaces.Ref, name, sig string, args ...interfaces.Value) (interfaces.Value, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Void(), err
	}
	self, ok := e.rt.Resolve(obj)
	if !ok {
		return interfaces.Void(), fmt.Errorf("%w: receiver of %s%s", interfaces.ErrNullReference, name, sig)
	}

	e.rt.mu.RLock()
	fn, ok := self.Class.methods[name+sig]
	e.rt.mu.RUnlock()

	return e.invoke(InvocationRecord{Class: self.Class.Name, Method: name, Signature: sig, Args: args, ThreadID: e.tid}, fn, ok, self)
}

// CallStaticMethod implements IHostEnv.CallStaticMethod
func (e *simEnv) CallStaticMethod(class interfaces.Ref, name, sig string, args ...interfaces.Value) (interfaces.Value, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Void(), err
	}
	c, err := e.classOf(class)
	if err != nil {
		return interfaces.Void(), err
	}

	e.rt.mu.RLock()
	fn, ok := c.statics[name+sig]
	e.rt.mu.RUnlock()

	return e.invoke(InvocationRecord{Class: c.Name, Method: name, Signature: sig, Static: true, Args: args, ThreadID: e.tid}, fn, ok, nil)
}

func (e *simEnv) invoke(rec InvocationRecord, fn MethodFunc, found bool, self *SimObject) (interfaces.Value, error) {
	if !found {
		rec.Err = fmt.Errorf("%w: %s.%s%s", interfaces.ErrNoSuchMethod, rec.Class, rec.Method, rec.Signature)
		e.rt.record(rec)
		return interfaces.Void(), rec.Err
	}
	want, err := interfaces.ReturnKind(rec.Signature)
	if err == nil {
		err = interfaces.CheckArgs(rec.Signature, rec.Args)
	}
	if err != nil {
		rec.Err = err
		e.rt.record(rec)
		return interfaces.Void(), err
	}

	result, err := fn(e, self, rec.Args)
	if err != nil {
		rec.Err = fmt.Errorf("%w: %s.%s: %v", interfaces.ErrHostException, rec.Class, rec.Method, err)
		e.rt.record(rec)
		return interfaces.Void(), rec.Err
	}
	if result.Kind() != want {
		rec.Err = fmt.Errorf("%w: %s.%s returned %s, declared %s", interfaces.ErrWrongValueType, rec.Class, rec.Method, result.Kind(), want)
		e.rt.record(rec)
		return interfaces.Void(), rec.Err
	}
	e.rt.record(rec)
	return result, nil
}

// NewString implements IHostEnv.NewString
func (e *simEnv) NewString(s string) (interfaces.Ref, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Null, err
	}
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	if e.rt.stringErr != nil {
		return interfaces.Null, fmt.Errorf("%w: NewString: %w", interfaces.ErrHostException, e.rt.stringErr)
	}
	c := e.rt.classes[ClassString]
	return e.rt.allocLocked(&refEntry{obj: &SimObject{Class: c, Value: s}}), nil
}

// NewGlobalRef implements IHostEnv.NewGlobalRef
func (e *simEnv) NewGlobalRef(obj interfaces.Ref) (interfaces.Ref, error) {
	if err := e.checkThread(); err != nil {
		return interfaces.Null, err
	}
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()

	src, ok := e.rt.refs[obj]
	if !ok {
		return interfaces.Null, fmt.Errorf("%w: 0x%x", interfaces.ErrNullReference, obj)
	}
	return e.rt.allocLocked(&refEntry{obj: src.obj, class: src.class, global: true}), nil
}

// DeleteGlobalRef implements IHostEnv.DeleteGlobalRef
func (e *simEnv) DeleteGlobalRef(obj interfaces.Ref) {
	e.deleteRef(obj, true)
}

// DeleteLocalRef implements IHostEnv.DeleteLocalRef
func (e *simEnv) DeleteLocalRef(obj interfaces.Ref) {
	e.deleteRef(obj, false)
}

func (e *simEnv) deleteRef(obj interfaces.Ref, global bool) {
	if obj.IsNull() {
		return
	}
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()

	entry, ok := e.rt.refs[obj]
	if !ok || entry.global != global || e.checkThread() != nil {
		e.rt.badDeletes++
		return
	}
	delete(e.rt.refs, obj)
}

func (e *simEnv) classOf(ref interfaces.Ref) (*SimClass, error) {
	e.rt.mu.RLock()
	defer e.rt.mu.RUnlock()
	entry, ok := e.rt.refs[ref]
	if !ok || entry.class == nil {
		return nil, fmt.Errorf("%w: 0x%x is not a class reference", interfaces.ErrNoSuchClass, ref)
	}
	return entry.class, nil
}

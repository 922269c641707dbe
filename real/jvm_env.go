//go:build (linux || darwin) && (amd64 || arm64)

package real

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/opd-ai/callbridge/interfaces"
)

// javaEnv wraps the JNIEnv of one attached thread.
type javaEnv struct {
	env uintptr
	f   *envFuncs
}

// pendingException clears a pending Java exception and reports whether
// there was one. Exceptions must be cleared before the next JNI call.
func (e *javaEnv) pendingException() bool {
	if !e.f.exceptionCheck(e.env) {
		return false
	}
	e.f.exceptionClear(e.env)
	return true
}

// FindClass implements IHostEnv.FindClass
func (e *javaEnv) FindClass(name string) (interfaces.Ref, error) {
	class := e.f.findClass(e.env, name)
	if e.pendingException() || class == 0 {
		return interfaces.Null, fmt.Errorf("%w: %s", interfaces.ErrNoSuchClass, name)
	}
	return interfaces.Ref(class), nil
}

func (e *javaEnv) methodID(class uintptr, name, sig string, static bool) (uintptr, error) {
	var id uintptr
	if static {
		id = e.f.getStaticMethodID(e.env, class, name, sig)
	} else {
		id = e.f.getMethodID(e.env, class, name, sig)
	}
	if e.pendingException() || id == 0 {
		return 0, fmt.Errorf("%w: %s%s", interfaces.ErrNoSuchMethod, name, sig)
	}
	return id, nil
}

// NewObject implements IHostEnv.NewObject
func (e *javaEnv) NewObject(class interfaces.Ref, ctorSig string, args ...interfaces.Value) (interfaces.Ref, error) {
	if class.IsNull() {
		return interfaces.Null, fmt.Errorf("%w: class of <init>%s", interfaces.ErrNullReference, ctorSig)
	}
	if err := interfaces.CheckArgs(ctorSig, args); err != nil {
		return interfaces.Null, err
	}
	mid, err := e.methodID(uintptr(class), "<init>", ctorSig, false)
	if err != nil {
		return interfaces.Null, err
	}

	jargs := jvalues(args)
	obj := e.f.newObjectA(e.env, uintptr(class), mid, argsPointer(jargs))
	runtime.KeepAlive(jargs)
	if e.pendingException() {
		return interfaces.Null, fmt.Errorf("%w: <init>%s", interfaces.ErrHostException, ctorSig)
	}
	return interfaces.Ref(obj), nil
}

// CallMethod implements IHostEnv.CallMethod
func (e *javaEnv) CallMethod(obj interfaces.Ref, name, sig string, args ...interfaces.Value) (interfaces.Value, error) {
	if obj.IsNull() {
		return interfaces.Void(), fmt.Errorf("%w: receiver of %s%s", interfaces.ErrNullReference, name, sig)
	}
	kind, err := checkCall(sig, args)
	if err != nil {
		return interfaces.Void(), err
	}

	class := e.f.getObjectClass(e.env, uintptr(obj))
	mid, err := e.methodID(class, name, sig, false)
	e.f.deleteLocalRef(e.env, class)
	if err != nil {
		return interfaces.Void(), err
	}

	jargs := jvalues(args)
	p := argsPointer(jargs)
	var result interfaces.Value
	switch kind {
	case interfaces.KindVoid:
		e.f.callVoid(e.env, uintptr(obj), mid, p)
		result = interfaces.Void()
	case interfaces.KindBoolean:
		result = interfaces.Bool(e.f.callBoolean(e.env, uintptr(obj), mid, p))
	case interfaces.KindInt:
		result = interfaces.Int(e.f.callInt(e.env, uintptr(obj), mid, p))
	case interfaces.KindLong:
		result = interfaces.Long(e.f.callLong(e.env, uintptr(obj), mid, p))
	case interfaces.KindObject:
		result = interfaces.Object(interfaces.Ref(e.f.callObject(e.env, uintptr(obj), mid, p)))
	}
	runtime.KeepAlive(jargs)

	if e.pendingException() {
		return interfaces.Void(), fmt.Errorf("%w: %s%s", interfaces.ErrHostException, name, sig)
	}
	return result, nil
}

// CallStaticMethod implements IHostEnv.CallStaticMethod
func (e *javaEnv) CallStaticMethod(class interfaces.Ref, name, sig string, args ...interfaces.Value) (interfaces.Value, error) {
	if class.IsNull() {
		return interfaces.Void(), fmt.Errorf("%w: class of %s%s", interfaces.ErrNullReference, name, sig)
	}
	kind, err := checkCall(sig, args)
	if err != nil {
		return interfaces.Void(), err
	}
	mid, err := e.methodID(uintptr(class), name, sig, true)
	if err != nil {
		return interfaces.Void(), err
	}

	c := uintptr(class)
	jargs := jvalues(args)
	p := argsPointer(jargs)
	var result interfaces.Value
	switch kind {
	case interfaces.KindVoid:
		e.f.callStaticVoid(e.env, c, mid, p)
		result = interfaces.Void()
	case interfaces.KindBoolean:
		result = interfaces.Bool(e.f.callStaticBoolean(e.env, c, mid, p))
	case interfaces.KindInt:
		result = interfaces.Int(e.f.callStaticInt(e.env, c, mid, p))
	case interfaces.KindLong:
		result = interfaces.Long(e.f.callStaticLong(e.env, c, mid, p))
	case interfaces.KindObject:
		result = interfaces.Object(interfaces.Ref(e.f.callStaticObject(e.env, c, mid, p)))
	}
	runtime.KeepAlive(jargs)

	if e.pendingException() {
		return interfaces.Void(), fmt.Errorf("%w: %s%s", interfaces.ErrHostException, name, sig)
	}
	return result, nil
}

// NewString implements IHostEnv.NewString
func (e *javaEnv) NewString(s string) (interfaces.Ref, error) {
	chars := utf16Chars(s)
	var p unsafe.Pointer
	if len(chars) > 0 {
		p = unsafe.Pointer(&chars[0])
	}
	str := e.f.newString(e.env, p, int32(len(chars)))
	runtime.KeepAlive(chars)
	if e.pendingException() || str == 0 {
		return interfaces.Null, fmt.Errorf("%w: NewString of %d chars", interfaces.ErrHostException, len(chars))
	}
	return interfaces.Ref(str), nil
}

// NewGlobalRef implements IHostEnv.NewGlobalRef
func (e *javaEnv) NewGlobalRef(obj interfaces.Ref) (interfaces.Ref, error) {
	if obj.IsNull() {
		return interfaces.Null, interfaces.ErrNullReference
	}
	global := e.f.newGlobalRef(e.env, uintptr(obj))
	if global == 0 {
		return interfaces.Null, fmt.Errorf("%w: NewGlobalRef", interfaces.ErrHostException)
	}
	return interfaces.Ref(global), nil
}

// DeleteGlobalRef implements IHostEnv.DeleteGlobalRef
func (e *javaEnv) DeleteGlobalRef(obj interfaces.Ref) {
	if !obj.IsNull() {
		e.f.deleteGlobalRef(e.env, uintptr(obj))
	}
}

// DeleteLocalRef implements IHostEnv.DeleteLocalRef
func (e *javaEnv) DeleteLocalRef(obj interfaces.Ref) {
	if !obj.IsNull() {
		e.f.deleteLocalRef(e.env, uintptr(obj))
	}
}

func checkCall(sig string, args []interfaces.Value) (interfaces.Kind, error) {
	kind, err := interfaces.ReturnKind(sig)
	if err != nil {
		return kind, err
	}
	return kind, interfaces.CheckArgs(sig, args)
}

func argsPointer(jargs []uint64) unsafe.Pointer {
	if len(jargs) == 0 {
		return nil
	}
	return unsafe.Pointer(&jargs[0])
}

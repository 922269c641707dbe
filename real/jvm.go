//go:build (linux || darwin) && (amd64 || arm64)

package real

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// vmFuncs are the invocation interface entries the runtime uses.
type vmFuncs struct {
	getEnv       func(vm uintptr, penv *uintptr, version int32) int32
	attachDaemon func(vm uintptr, penv *uintptr, args unsafe.Pointer) int32
}

// envFuncs are the JNIEnv entries the runtime uses. HotSpot shares one
// function table across all threads, so they are bound once.
type envFuncs struct {
	findClass         func(env uintptr, name string) uintptr
	exceptionCheck    func(env uintptr) bool
	exceptionClear    func(env uintptr)
	newGlobalRef      func(env, obj uintptr) uintptr
	deleteGlobalRef   func(env, obj uintptr)
	deleteLocalRef    func(env, obj uintptr)
	newObjectA        func(env, class, method uintptr, args unsafe.Pointer) uintptr
	getObjectClass    func(env, obj uintptr) uintptr
	getMethodID       func(env, class uintptr, name, sig string) uintptr
	getStaticMethodID func(env, class uintptr, name, sig string) uintptr
	newString         func(env uintptr, chars unsafe.Pointer, n int32) uintptr

	callObject  func(env, obj, method uintptr, args unsafe.Pointer) uintptr
	callBoolean func(env, obj, method uintptr, args unsafe.Pointer) bool
	callInt     func(env, obj, method uintptr, args unsafe.Pointer) int32
	callLong    func(env, obj, method uintptr, args unsafe.Pointer) int64
	callVoid    func(env, obj, method uintptr, args unsafe.Pointer)

	callStaticObject  func(env, class, method uintptr, args unsafe.Pointer) uintptr
	callStaticBoolean func(env, class, method uintptr, args unsafe.Pointer) bool
	callStaticInt     func(env, class, method uintptr, args unsafe.Pointer) int32
	callStaticLong    func(env, class, method uintptr, args unsafe.Pointer) int64
	callStaticVoid    func(env, class, method uintptr, args unsafe.Pointer)
}

// JavaRuntime implements interfaces.IHostRuntime over a running JVM.
type JavaRuntime struct {
	vm      uintptr
	version int32
	vmf     vmFuncs

	envOnce sync.Once
	envf    *envFuncs
}

// NewJavaRuntime opens the JVM library and binds to the VM already running
// in the process.
func NewJavaRuntime(cfg interfaces.HostRuntimeConfig) (*JavaRuntime, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewJavaRuntime",
		"library":     cfg.LibraryPath,
		"jni_version": fmt.Sprintf("0x%08x", cfg.JNIVersion),
	}).Info("Binding to Java virtual machine")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lib, err := openLibrary(cfg)
	if err != nil {
		return nil, err
	}

	var getCreatedVMs func(buf *uintptr, bufLen int32, count *int32) int32
	purego.RegisterLibFunc(&getCreatedVMs, lib, "JNI_GetCreatedJavaVMs")

	var vm uintptr
	var count int32
	if err := statusError("JNI_GetCreatedJavaVMs", getCreatedVMs(&vm, 1, &count)); err != nil {
		return nil, err
	}
	if count == 0 || vm == 0 {
		return nil, fmt.Errorf("%w: no Java VM running in process", interfaces.ErrRuntimeUnavailable)
	}
	return NewJavaRuntimeFromVM(vm, cfg.JNIVersion)
}

// NewJavaRuntimeFromVM binds to a JavaVM pointer handed over by the host,
// for example from JNI_OnLoad.
func NewJavaRuntimeFromVM(vm uintptr, version int32) (*JavaRuntime, error) {
	if vm == 0 {
		return nil, fmt.Errorf("%w: null JavaVM", interfaces.ErrRuntimeUnavailable)
	}
	if version < interfaces.JNIVersion1_2 {
		return nil, fmt.Errorf("%w: 0x%08x", interfaces.ErrInvalidJNIVersion, version)
	}

	r := &JavaRuntime{vm: vm, version: version}
	purego.RegisterFunc(&r.vmf.getEnv, tableEntry(vm, vmGetEnv))
	purego.RegisterFunc(&r.vmf.attachDaemon, tableEntry(vm, vmAttachCurrentThreadAsDaemon))

	logrus.WithFields(logrus.Fields{
		"function": "NewJavaRuntimeFromVM",
		"vm":       fmt.Sprintf("0x%x", vm),
	}).Info("Java runtime bound")
	return r, nil
}

func openLibrary(cfg interfaces.HostRuntimeConfig) (uintptr, error) {
	var errs []error
	for _, path := range libraryCandidates(cfg) {
		lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"function": "openLibrary",
				"path":     path,
			}).Debug("Opened JVM library")
			return lib, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}
	return 0, fmt.Errorf("%w: %w", interfaces.ErrRuntimeUnavailable, errors.Join(errs...))
}

// tableEntry reads slot i of the function table a JavaVM or JNIEnv points to.
func tableEntry(ptr uintptr, i int) uintptr {
	table := *(*unsafe.Pointer)(unsafe.Pointer(ptr))
	return *(*uintptr)(unsafe.Add(table, uintptr(i)*unsafe.Sizeof(uintptr(0))))
}

// GetEnv implements IHostRuntime.GetEnv
func (r *JavaRuntime) GetEnv() (interfaces.IHostEnv, error) {
	var env uintptr
	if err := statusError("GetEnv", r.vmf.getEnv(r.vm, &env, r.version)); err != nil {
		return nil, err
	}
	return r.wrap(env), nil
}

// AttachCurrentThreadAsDaemon implements IHostRuntime.AttachCurrentThreadAsDaemon
func (r *JavaRuntime) AttachCurrentThreadAsDaemon() (interfaces.IHostEnv, error) {
	var env uintptr
	if err := statusError("AttachCurrentThreadAsDaemon", r.vmf.attachDaemon(r.vm, &env, nil)); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":  "JavaRuntime.AttachCurrentThreadAsDaemon",
		"thread_id": interfaces.CurrentThreadID(),
	}).Debug("Attached thread to Java VM")
	return r.wrap(env), nil
}

// IsSimulation implements IHostRuntime.IsSimulation
func (r *JavaRuntime) IsSimulation() bool {
	return false
}

func (r *JavaRuntime) wrap(env uintptr) *javaEnv {
	r.envOnce.Do(func() { r.envf = bindEnv(env) })
	return &javaEnv{env: env, f: r.envf}
}

func bindEnv(env uintptr) *envFuncs {
	f := &envFuncs{}
	bind := func(fptr any, slot int) { purego.RegisterFunc(fptr, tableEntry(env, slot)) }

	bind(&f.findClass, envFindClass)
	bind(&f.exceptionCheck, envExceptionCheck)
	bind(&f.exceptionClear, envExceptionClear)
	bind(&f.newGlobalRef, envNewGlobalRef)
	bind(&f.deleteGlobalRef, envDeleteGlobalRef)
	bind(&f.deleteLocalRef, envDeleteLocalRef)
	bind(&f.newObjectA, envNewObjectA)
	bind(&f.getObjectClass, envGetObjectClass)
	bind(&f.getMethodID, envGetMethodID)
	bind(&f.getStaticMethodID, envGetStaticMethodID)
	bind(&f.newString, envNewString)

	bind(&f.callObject, envCallObjectMethodA)
	bind(&f.callBoolean, envCallBooleanMethodA)
	bind(&f.callInt, envCallIntMethodA)
	bind(&f.callLong, envCallLongMethodA)
	bind(&f.callVoid, envCallVoidMethodA)

	bind(&f.callStaticObject, envCallStaticObjectMethodA)
	bind(&f.callStaticBoolean, envCallStaticBooleanMethodA)
	bind(&f.callStaticInt, envCallStaticIntMethodA)
	bind(&f.callStaticLong, envCallStaticLongMethodA)
	bind(&f.callStaticVoid, envCallStaticVoidMethodA)
	return f
}

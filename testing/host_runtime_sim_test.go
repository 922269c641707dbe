package testing

import (
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachedEnv(t *testing.T, rt *SimulatedHostRuntime) interfaces.IHostEnv {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
	env, err := rt.AttachCurrentThreadAsDaemon()
	require.NoError(t, err)
	return env
}

func TestGetEnvRequiresAttachment(t *testing.T) {
	rt := NewSimulatedHostRuntime()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_, err := rt.GetEnv()
	assert.ErrorIs(t, err, interfaces.ErrDetached)

	_, err = rt.AttachCurrentThreadAsDaemon()
	require.NoError(t, err)

	_, err = rt.GetEnv()
	assert.NoError(t, err)
	assert.Equal(t, 1, rt.AttachCount())
	assert.Equal(t, 1, rt.AttachedThreads())
	assert.True(t, rt.IsSimulation())
}

func TestAttachErrorInjection(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	boom := errors.New("out of thread slots")
	rt.SetAttachError(boom)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_, err := rt.AttachCurrentThreadAsDaemon()
	assert.ErrorIs(t, err, boom)

	rt.SetAttachError(nil)
	_, err = rt.AttachCurrentThreadAsDaemon()
	assert.NoError(t, err)
}

func TestStringErrorInjection(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	env := attachedEnv(t, rt)
	boom := errors.New("heap exhausted")

	rt.SetStringError(boom)
	ref, err := env.NewString("v=0")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, interfaces.ErrHostException)
	assert.True(t, ref.IsNull())
	assert.Zero(t, rt.LocalRefCount())

	rt.SetStringError(nil)
	ref, err = env.NewString("v=0")
	require.NoError(t, err)
	got, err := rt.StringValue(ref)
	require.NoError(t, err)
	assert.Equal(t, "v=0", got)
}

func TestMethodDispatchAndLog(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	var got string
	rt.DefineClass("org/example/Greeter").
		Method("greet", "(Ljava/lang/String;)Z", func(env interfaces.IHostEnv, self *SimObject, args []interfaces.Value) (interfaces.Value, error) {
			ref, err := args[0].Object()
			if err != nil {
				return interfaces.Void(), err
			}
			got, err = rt.StringValue(ref)
			return interfaces.Bool(true), err
		})

	greeter, err := rt.NewInstance("org/example/Greeter", nil)
	require.NoError(t, err)

	env := attachedEnv(t, rt)
	name, err := env.NewString("héllo 🌍")
	require.NoError(t, err)

	res, err := env.CallMethod(greeter, "greet", "(Ljava/lang/String;)Z", interfaces.Object(name))
	require.NoError(t, err)
	ok, err := res.Bool()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "héllo 🌍", got)

	calls := rt.Invocations("greet")
	require.Len(t, calls, 1)
	assert.Equal(t, "org/example/Greeter", calls[0].Class)
	assert.NoError(t, calls[0].Err)
}

func TestMethodMismatches(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	rt.DefineClass("org/example/Thing").
		Method("count", "()I", func(interfaces.IHostEnv, *SimObject, []interfaces.Value) (interfaces.Value, error) {
			return interfaces.Long(1), nil
		}).
		Method("fail", "()V", func(interfaces.IHostEnv, *SimObject, []interfaces.Value) (interfaces.Value, error) {
			return interfaces.Void(), errors.New("IllegalStateException")
		})
	thing, err := rt.NewInstance("org/example/Thing", nil)
	require.NoError(t, err)
	env := attachedEnv(t, rt)

	_, err = env.CallMethod(thing, "missing", "()V")
	assert.ErrorIs(t, err, interfaces.ErrNoSuchMethod)

	_, err = env.CallMethod(thing, "count", "()I", interfaces.Int(3))
	assert.ErrorIs(t, err, interfaces.ErrWrongValueType)

	_, err = env.CallMethod(thing, "count", "()I")
	assert.ErrorIs(t, err, interfaces.ErrWrongValueType)

	_, err = env.CallMethod(thing, "fail", "()V")
	assert.ErrorIs(t, err, interfaces.ErrHostException)

	_, err = env.CallMethod(interfaces.Null, "count", "()I")
	assert.ErrorIs(t, err, interfaces.ErrNullReference)

	_, err = env.FindClass("org/example/Nope")
	assert.ErrorIs(t, err, interfaces.ErrNoSuchClass)
}

func TestLinkedListPreservesOrder(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	env := attachedEnv(t, rt)

	cls, err := env.FindClass(ClassLinkedList)
	require.NoError(t, err)
	list, err := env.NewObject(cls, "()V")
	require.NoError(t, err)

	for _, s := range []string{"a", "b", "c"} {
		item, err := env.NewString(s)
		require.NoError(t, err)
		_, err = env.CallMethod(list, "add", "(Ljava/lang/Object;)Z", interfaces.Object(item))
		require.NoError(t, err)
		env.DeleteLocalRef(item)
	}

	items, err := rt.ListItems(list)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, items[i].Value)
	}

	size, err := env.CallMethod(list, "size", "()I")
	require.NoError(t, err)
	n, _ := size.Int()
	assert.Equal(t, int32(3), n)
}

func TestReferenceBookkeeping(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	env := attachedEnv(t, rt)

	local, err := env.NewString("x")
	require.NoError(t, err)
	global, err := env.NewGlobalRef(local)
	require.NoError(t, err)
	assert.NotEqual(t, local, global)

	a, _ := rt.Resolve(local)
	b, _ := rt.Resolve(global)
	assert.Same(t, a, b)

	env.DeleteLocalRef(local)
	assert.Equal(t, 0, rt.LocalRefCount())
	assert.Equal(t, 1, rt.GlobalRefCount())

	env.DeleteLocalRef(global)
	assert.Equal(t, 1, rt.BadDeletes())

	env.DeleteGlobalRef(global)
	env.DeleteGlobalRef(global)
	assert.Equal(t, 0, rt.GlobalRefCount())
	assert.Equal(t, 2, rt.BadDeletes())
}

func TestEnvBoundToThread(t *testing.T) {
	rt := NewSimulatedHostRuntime()
	env := attachedEnv(t, rt)

	var wg sync.WaitGroup
	var foreignErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		// the test goroutine holds its own thread, so this one runs elsewhere
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		_, foreignErr = env.NewString("nope")
	}()
	wg.Wait()
	assert.ErrorIs(t, foreignErr, ErrWrongThread)
}

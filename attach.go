package callbridge

import (
	"errors"
	"runtime"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/sirupsen/logrus"
)

// attacher binds the calling OS thread to the host runtime before any
// boundary call. Each thread attaches independently; there is no lock
// around the runtime binding itself.
type attacher struct {
	runtime interfaces.IHostRuntime
	stats   *boundaryStats
}

// acquire returns the env of the calling thread, attaching the thread as a
// daemon if it is not bound yet. The goroutine stays locked to its OS thread
// until the returned release func runs, because an env is only valid on the
// thread that obtained it.
func (a *attacher) acquire() (interfaces.IHostEnv, func(), error) {
	runtime.LockOSThread()

	env, err := a.runtime.GetEnv()
	if err == nil {
		return env, runtime.UnlockOSThread, nil
	}

	tid := interfaces.CurrentThreadID()
	if !errors.Is(err, interfaces.ErrDetached) {
		runtime.UnlockOSThread()
		return nil, nil, &AttachError{ThreadID: tid, Err: err}
	}

	env, err = a.runtime.AttachCurrentThreadAsDaemon()
	if err != nil {
		runtime.UnlockOSThread()
		logrus.WithFields(logrus.Fields{
			"function":  "attacher.acquire",
			"thread_id": tid,
			"error":     err.Error(),
		}).Error("Failed to attach thread to host runtime")
		return nil, nil, &AttachError{ThreadID: tid, Err: err}
	}

	a.stats.attaches.Add(1)
	logrus.WithFields(logrus.Fields{
		"function":  "attacher.acquire",
		"thread_id": tid,
	}).Debug("Attached thread to host runtime")
	return env, runtime.UnlockOSThread, nil
}

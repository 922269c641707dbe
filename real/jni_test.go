package real

import (
	"path/filepath"
	"testing"

	"github.com/opd-ai/callbridge/interfaces"
	"github.com/stretchr/testify/assert"
)

var _ interfaces.IHostRuntime = (*JavaRuntime)(nil)

func TestStatusError(t *testing.T) {
	assert.NoError(t, statusError("GetEnv", jniOK))
	assert.ErrorIs(t, statusError("GetEnv", jniEDetached), interfaces.ErrDetached)
	assert.ErrorIs(t, statusError("GetEnv", jniEVersion), interfaces.ErrRuntimeUnavailable)

	for _, code := range []int32{jniErr, jniENoMem, jniEExist, jniEInval, -99} {
		err := statusError("AttachCurrentThreadAsDaemon", code)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "AttachCurrentThreadAsDaemon")
		assert.NotErrorIs(t, err, interfaces.ErrDetached)
	}
}

func TestJValues(t *testing.T) {
	assert.Nil(t, jvalues(nil))

	got := jvalues([]interfaces.Value{
		interfaces.Bool(true),
		interfaces.Int(-1),
		interfaces.Long(-2),
		interfaces.Object(0xdead),
	})
	assert.Equal(t, []uint64{1, 0xffffffff, 0xfffffffffffffffe, 0xdead}, got)
}

func TestUTF16Chars(t *testing.T) {
	assert.Empty(t, utf16Chars(""))
	assert.Equal(t, []uint16{'a', 0xe9}, utf16Chars("aé"))
	// U+1F4DE is outside the BMP and becomes a surrogate pair
	assert.Equal(t, []uint16{0xd83d, 0xdcde}, utf16Chars("📞"))
}

func TestLibraryCandidates(t *testing.T) {
	explicit := libraryCandidates(interfaces.HostRuntimeConfig{LibraryPath: "/opt/jdk/libjvm.so"})
	assert.Equal(t, []string{"/opt/jdk/libjvm.so"}, explicit)

	t.Setenv("JAVA_HOME", "/usr/lib/jvm/default")
	paths := libraryCandidates(interfaces.HostRuntimeConfig{})
	assert.Equal(t, filepath.Join("/usr/lib/jvm/default", "lib", "server", libraryName()), paths[0])
	assert.Equal(t, libraryName(), paths[len(paths)-1])

	t.Setenv("JAVA_HOME", "")
	assert.Equal(t, []string{libraryName()}, libraryCandidates(interfaces.HostRuntimeConfig{}))
}

func TestNewJavaRuntimeRejectsBadInput(t *testing.T) {
	_, err := NewJavaRuntimeFromVM(0, interfaces.JNIVersion1_6)
	assert.ErrorIs(t, err, interfaces.ErrRuntimeUnavailable)

	_, err = NewJavaRuntime(interfaces.HostRuntimeConfig{
		LibraryPath: "/nonexistent/libjvm.so",
		JNIVersion:  interfaces.JNIVersion1_6,
	})
	assert.ErrorIs(t, err, interfaces.ErrRuntimeUnavailable)
}

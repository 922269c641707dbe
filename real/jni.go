package real

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unicode/utf16"

	"github.com/opd-ai/callbridge/interfaces"
)

// JNI return codes.
const (
	jniOK        int32 = 0
	jniErr       int32 = -1
	jniEDetached int32 = -2
	jniEVersion  int32 = -3
	jniENoMem    int32 = -4
	jniEExist    int32 = -5
	jniEInval    int32 = -6
)

// Slots in the JNIInvokeInterface table.
const (
	vmGetEnv                      = 6
	vmAttachCurrentThreadAsDaemon = 7
)

// Slots in the JNINativeInterface table.
const (
	envFindClass                = 6
	envExceptionClear           = 17
	envNewGlobalRef             = 21
	envDeleteGlobalRef          = 22
	envDeleteLocalRef           = 23
	envNewObjectA               = 30
	envGetObjectClass           = 31
	envGetMethodID              = 33
	envCallObjectMethodA        = 36
	envCallBooleanMethodA       = 39
	envCallIntMethodA           = 51
	envCallLongMethodA          = 54
	envCallVoidMethodA          = 63
	envGetStaticMethodID        = 113
	envCallStaticObjectMethodA  = 116
	envCallStaticBooleanMethodA = 119
	envCallStaticIntMethodA     = 131
	envCallStaticLongMethodA    = 134
	envCallStaticVoidMethodA    = 143
	envNewString                = 163
	envExceptionCheck           = 228
)

// statusError maps a JNI return code to an error; JNI_OK maps to nil.
func statusError(op string, code int32) error {
	switch code {
	case jniOK:
		return nil
	case jniEDetached:
		return interfaces.ErrDetached
	case jniEVersion:
		return fmt.Errorf("%s: %w: version not supported", op, interfaces.ErrRuntimeUnavailable)
	case jniENoMem:
		return fmt.Errorf("%s: out of memory", op)
	case jniEExist:
		return fmt.Errorf("%s: VM already exists", op)
	case jniEInval:
		return fmt.Errorf("%s: invalid arguments", op)
	default:
		return fmt.Errorf("%s: JNI error %d", op, code)
	}
}

// jvalues lays out args as a jvalue array. Each jvalue is an 8-byte union
// and every Value kind sits in its low bytes on little-endian targets.
func jvalues(args []interfaces.Value) []uint64 {
	if len(args) == 0 {
		return nil
	}
	out := make([]uint64, len(args))
	for i, a := range args {
		out[i] = a.Raw()
	}
	return out
}

// utf16Chars converts s to the UTF-16 code units NewString expects.
// Characters outside the BMP become surrogate pairs.
func utf16Chars(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// libraryName returns the platform file name of the JVM library.
func libraryName() string {
	if runtime.GOOS == "darwin" {
		return "libjvm.dylib"
	}
	return "libjvm.so"
}

// libraryCandidates lists the paths tried when opening the JVM library, most
// specific first.
func libraryCandidates(cfg interfaces.HostRuntimeConfig) []string {
	if cfg.LibraryPath != "" {
		return []string{cfg.LibraryPath}
	}

	name := libraryName()
	var paths []string
	if home := os.Getenv("JAVA_HOME"); home != "" {
		paths = append(paths,
			filepath.Join(home, "lib", "server", name),
			filepath.Join(home, "jre", "lib", "server", name),
			filepath.Join(home, "lib", "client", name),
		)
	}
	return append(paths, name)
}

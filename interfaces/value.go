package interfaces

import "fmt"

// Ref is an opaque reference to a host object. The zero Ref is null.
type Ref uintptr

// Null is the null host reference.
const Null Ref = 0

// IsNull reports whether r is the null reference.
func (r Ref) IsNull() bool {
	return r == Null
}

// Kind identifies the type carried by a Value.
type Kind uint8

const (
	// KindVoid is the result of a method returning nothing
	KindVoid Kind = iota
	// KindBoolean is a host boolean
	KindBoolean
	// KindInt is a 32-bit signed integer
	KindInt
	// KindLong is a 64-bit signed integer
	KindLong
	// KindObject is a host object reference (possibly null)
	KindObject
)

// String returns the signature character of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "V"
	case KindBoolean:
		return "Z"
	case KindInt:
		return "I"
	case KindLong:
		return "J"
	case KindObject:
		return "L"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a typed argument to, or result of, a boundary call.
type Value struct {
	kind Kind
	bits uint64
}

// Void is the result of a void method.
func Void() Value { return Value{kind: KindVoid} }

// Bool wraps a boolean.
func Bool(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.bits = 1
	}
	return v
}

// Int wraps a 32-bit integer.
func Int(i int32) Value { return Value{kind: KindInt, bits: uint64(uint32(i))} }

// Long wraps a 64-bit integer.
func Long(l int64) Value { return Value{kind: KindLong, bits: uint64(l)} }

// Object wraps an object reference.
func Object(r Ref) Value { return Value{kind: KindObject, bits: uint64(r)} }

// Kind returns the kind of value held.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the value as the 64-bit slot used by the host calling
// convention. Booleans occupy the low byte, ints the low 32 bits.
func (v Value) Raw() uint64 { return v.bits }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBoolean {
		return false, v.mismatch(KindBoolean)
	}
	return v.bits&0xff != 0, nil
}

// Int returns the 32-bit integer held by v.
func (v Value) Int() (int32, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return int32(uint32(v.bits)), nil
}

// Long returns the 64-bit integer held by v.
func (v Value) Long() (int64, error) {
	if v.kind != KindLong {
		return 0, v.mismatch(KindLong)
	}
	return int64(v.bits), nil
}

// Object returns the reference held by v. A null reference is not an error.
func (v Value) Object() (Ref, error) {
	if v.kind != KindObject {
		return Null, v.mismatch(KindObject)
	}
	return Ref(v.bits), nil
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: have %s, want %s", ErrWrongValueType, v.kind, want)
}

// String renders the value for logs.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBoolean:
		return fmt.Sprintf("%t", v.bits&0xff != 0)
	case KindInt:
		return fmt.Sprintf("%d", int32(uint32(v.bits)))
	case KindLong:
		return fmt.Sprintf("%d", int64(v.bits))
	case KindObject:
		return fmt.Sprintf("ref(0x%x)", v.bits)
	default:
		return "invalid"
	}
}

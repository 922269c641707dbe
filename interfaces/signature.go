package interfaces

import (
	"fmt"
	"strings"
)

// Signature fragments for the types the bridge marshals.
const (
	TypeVoid    = "V"
	TypeBoolean = "Z"
	TypeInt     = "I"
	TypeLong    = "J"
	TypeString  = "Ljava/lang/String;"
	TypeObject  = "Ljava/lang/Object;"
	TypeList    = "Ljava/util/List;"
)

// ClassType returns the signature fragment for a reference to class.
func ClassType(class string) string {
	return "L" + class + ";"
}

// MethodSignature builds a method signature from its return type and
// parameter types.
func MethodSignature(ret string, params ...string) string {
	return "(" + strings.Join(params, "") + ")" + ret
}

// ReturnKind parses the return type of a method signature.
func ReturnKind(sig string) (Kind, error) {
	rparen := strings.LastIndexByte(sig, ')')
	if !strings.HasPrefix(sig, "(") || rparen < 0 || rparen == len(sig)-1 {
		return KindVoid, fmt.Errorf("%w: malformed signature %q", ErrUnsupportedType, sig)
	}
	kinds, err := parseKinds(sig[rparen+1:])
	if err != nil {
		return KindVoid, fmt.Errorf("return type of %q: %w", sig, err)
	}
	if len(kinds) != 1 {
		return KindVoid, fmt.Errorf("%w: malformed return type in %q", ErrUnsupportedType, sig)
	}
	return kinds[0], nil
}

// ParamKinds parses the parameter types of a method signature.
func ParamKinds(sig string) ([]Kind, error) {
	rparen := strings.IndexByte(sig, ')')
	if !strings.HasPrefix(sig, "(") || rparen < 0 {
		return nil, fmt.Errorf("%w: malformed signature %q", ErrUnsupportedType, sig)
	}
	kinds, err := parseKinds(sig[1:rparen])
	if err != nil {
		return nil, fmt.Errorf("parameters of %q: %w", sig, err)
	}
	for _, k := range kinds {
		if k == KindVoid {
			return nil, fmt.Errorf("%w: void parameter in %q", ErrUnsupportedType, sig)
		}
	}
	return kinds, nil
}

// CheckArgs verifies args match the parameter kinds of sig.
func CheckArgs(sig string, args []Value) error {
	kinds, err := ParamKinds(sig)
	if err != nil {
		return err
	}
	if len(kinds) != len(args) {
		return fmt.Errorf("%w: %q takes %d arguments, got %d", ErrWrongValueType, sig, len(kinds), len(args))
	}
	for i, k := range kinds {
		if args[i].Kind() != k {
			return fmt.Errorf("%w: argument %d of %q is %s, want %s", ErrWrongValueType, i, sig, args[i].Kind(), k)
		}
	}
	return nil
}

func parseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'V':
			kinds = append(kinds, KindVoid)
		case 'Z':
			kinds = append(kinds, KindBoolean)
		case 'I':
			kinds = append(kinds, KindInt)
		case 'J':
			kinds = append(kinds, KindLong)
		case 'L':
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated class type", ErrUnsupportedType)
			}
			i += end
			kinds = append(kinds, KindObject)
		case '[':
			// arrays are references; skip the element type
			j := i
			for j < len(s) && s[j] == '[' {
				j++
			}
			if j == len(s) {
				return nil, fmt.Errorf("%w: unterminated array type", ErrUnsupportedType)
			}
			if s[j] == 'L' {
				end := strings.IndexByte(s[j:], ';')
				if end < 0 {
					return nil, fmt.Errorf("%w: unterminated class type", ErrUnsupportedType)
				}
				j += end
			}
			i = j
			kinds = append(kinds, KindObject)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, s[i])
		}
	}
	return kinds, nil
}

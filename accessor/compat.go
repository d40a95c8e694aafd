package accessor

import (
	"fmt"
	"reflect"

	"github.com/cretz/testaccessor/accessor/internal/unsafeaccess"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Compatible reports whether a value of type actual can stand in for a value
// of type expected: the types are identical, expected is an interface actual
// implements, or actual embeds expected (directly or through other embedded
// structs). A pointer to a struct is also compatible with a pointer to any
// struct it embeds by value. Nil types are never compatible.
func Compatible(actual, expected reflect.Type) bool {
	if actual == nil || expected == nil {
		return false
	} else if actual == expected {
		return true
	} else if expected.Kind() == reflect.Interface && actual.Implements(expected) {
		return true
	}
	_, ok := embedPath(actual, expected)
	return ok
}

// TypesOf returns the runtime type of each value, nil for nil values.
func TypesOf(values ...interface{}) []reflect.Type {
	types := make([]reflect.Type, len(values))
	for i, v := range values {
		types[i] = reflect.TypeOf(v)
	}
	return types
}

func indirect(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice,
		reflect.UnsafePointer:
		return true
	}
	return false
}

type embedded struct {
	// Always the non-pointer type
	typ reflect.Type
	// Field index path from the root
	path []int
	// Whether reached through a pointer, making it addressable
	viaPtr bool
}

// embeddingLevels returns the struct types reachable from t through embedded
// fields grouped by depth, shallowest first. Level 0 is t itself. A type is
// only visited at its shallowest depth.
func embeddingLevels(t reflect.Type, viaPtr bool) [][]embedded {
	level := []embedded{{typ: t, viaPtr: viaPtr}}
	seen := map[reflect.Type]bool{t: true}
	var levels [][]embedded
	for len(level) > 0 {
		levels = append(levels, level)
		var next []embedded
		for _, e := range level {
			if e.typ.Kind() != reflect.Struct {
				continue
			}
			for i := 0; i < e.typ.NumField(); i++ {
				f := e.typ.Field(i)
				if !f.Anonymous {
					continue
				}
				ft, ptr := f.Type, false
				if ft.Kind() == reflect.Ptr {
					ft, ptr = ft.Elem(), true
				}
				if ft.Kind() != reflect.Struct || seen[ft] {
					continue
				}
				seen[ft] = true
				path := append(append(make([]int, 0, len(e.path)+1), e.path...), i)
				next = append(next, embedded{typ: ft, path: path, viaPtr: e.viaPtr || ptr})
			}
		}
		level = next
	}
	return levels
}

// embedPath returns the field index path to the embedded field through which
// actual can produce an expected value.
func embedPath(actual, expected reflect.Type) ([]int, bool) {
	root, viaPtr := actual, false
	if root.Kind() == reflect.Ptr {
		root, viaPtr = root.Elem(), true
	}
	if root.Kind() != reflect.Struct {
		return nil, false
	}
	for _, level := range embeddingLevels(root, viaPtr) {
		for _, e := range level {
			for i := 0; i < e.typ.NumField(); i++ {
				f := e.typ.Field(i)
				if !f.Anonymous {
					continue
				}
				switch {
				case f.Type == expected,
					// Embedded pointer dereferenced
					f.Type.Kind() == reflect.Ptr && f.Type.Elem() == expected,
					// Embedded value addressed
					e.viaPtr && expected.Kind() == reflect.Ptr && f.Type == expected.Elem():
					return append(append(make([]int, 0, len(e.path)+1), e.path...), i), true
				}
			}
		}
	}
	return nil, false
}

// adapt walks path from v and returns the reached value as type to, taking
// an address or dereferencing when needed. Values reached through unexported
// fields are returned without the read-only flag.
func adapt(v reflect.Value, path []int, to reflect.Type) (reflect.Value, error) {
	if len(path) == 0 && v.Type() == to {
		return v, nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %v", v.Type())
		}
		v = v.Elem()
	} else {
		v = unsafeaccess.Addressable(v)
	}
	v, err := unsafeaccess.FieldByIndex(v, path)
	if err != nil {
		return reflect.Value{}, err
	}
	switch {
	case v.Type() == to:
		return v, nil
	case v.Kind() == reflect.Ptr && v.Type().Elem() == to:
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %v", v.Type())
		}
		return v.Elem(), nil
	case to.Kind() == reflect.Ptr && to.Elem() == v.Type():
		return v.Addr(), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v as %v", v.Type(), to)
}

// convert returns value as a reflect.Value assignable to type to. Nil becomes
// the zero value of to.
func convert(value interface{}, to reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return reflect.Zero(to), nil
	} else if v.Type().AssignableTo(to) {
		return v, nil
	} else if path, ok := embedPath(v.Type(), to); ok {
		return adapt(v, path, to)
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v as %v", v.Type(), to)
}

func convertArgs(args []interface{}, params []reflect.Type) ([]reflect.Value, error) {
	if len(args) != len(params) {
		return nil, &InvalidArgumentError{
			Name:   "args",
			Reason: fmt.Sprintf("expected %v arguments, got %v", len(params), len(args)),
		}
	}
	vals := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := convert(arg, params[i])
		if err != nil {
			return nil, &InvalidArgumentError{Name: fmt.Sprintf("args[%v]", i), Reason: err.Error()}
		}
		vals[i] = v
	}
	return vals, nil
}

// matchParameters reports whether each argument type can be passed to the
// parameter at the same position. A nil argument type matches anything.
func matchParameters(params, args []reflect.Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i, arg := range args {
		if arg != nil && arg != params[i] && !Compatible(arg, params[i]) {
			return false
		}
	}
	return true
}

package accessor

import (
	"reflect"
)

var defaultResolver = NewResolver(Default)

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func instanceType(instance interface{}) (reflect.Type, error) {
	if instance == nil {
		return nil, &InvalidArgumentError{Name: "instance", Reason: "no instance given"}
	}
	return indirect(reflect.TypeOf(instance)), nil
}

// valueType is the runtime type of value, or V when value is nil.
func valueType[V any](value V) reflect.Type {
	if t := reflect.TypeOf(value); t != nil {
		return t
	}
	return typeOf[V]()
}

// as converts a member result to R. Results are already known to be
// compatible with R except for constructors, which may produce T or *T
// regardless of which one is asked for.
func as[R any](v interface{}, err error) (R, error) {
	var zero R
	if err != nil || v == nil {
		return zero, err
	}
	if r, ok := v.(R); ok {
		return r, nil
	}
	rt, rv := typeOf[R](), reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.Type().Elem() == rt && !rv.IsNil() {
		return rv.Elem().Interface().(R), nil
	} else if rt.Kind() == reflect.Ptr && rt.Elem() == rv.Type() {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		return ptr.Interface().(R), nil
	}
	cv, err := convert(v, rt)
	if err != nil {
		return zero, &InvalidArgumentError{Name: "result", Reason: err.Error()}
	}
	return cv.Interface().(R), nil
}

// GetField reads an unexported field of instance, which may be a struct or a
// pointer to one. The field type must be compatible with R.
func GetField[R any](instance interface{}, name string) (R, error) {
	t, err := instanceType(instance)
	if err != nil {
		var zero R
		return zero, err
	}
	return as[R](defaultResolver.GetField(t, name, typeOf[R](), instance))
}

// SetField assigns an unexported field of instance, which must be a pointer.
func SetField[V any](instance interface{}, name string, value V) error {
	t, err := instanceType(instance)
	if err != nil {
		return err
	}
	return defaultResolver.SetField(t, name, valueType(value), value, instance)
}

// GetStaticField reads a static field registered on t or its embedded types.
func GetStaticField[R any](t reflect.Type, name string) (R, error) {
	return as[R](defaultResolver.GetField(t, name, typeOf[R](), nil))
}

// SetStaticField assigns a static field registered on t or its embedded types.
// The runtime type of value must be compatible with the field; a nil value is
// accepted by fields that can hold nil.
func SetStaticField(t reflect.Type, name string, value interface{}) error {
	return defaultResolver.SetField(t, name, reflect.TypeOf(value), value, nil)
}

// GetProperty reads a registered property of instance.
func GetProperty[R any](instance interface{}, name string, index ...interface{}) (R, error) {
	t, err := instanceType(instance)
	if err != nil {
		var zero R
		return zero, err
	}
	return as[R](defaultResolver.GetProperty(t, name, typeOf[R](), instance, index...))
}

// SetProperty assigns a registered property of instance.
func SetProperty[V any](instance interface{}, name string, value V, index ...interface{}) error {
	t, err := instanceType(instance)
	if err != nil {
		return err
	}
	return defaultResolver.SetProperty(t, name, valueType(value), value, instance, index...)
}

// GetStaticProperty reads a static property registered on t.
func GetStaticProperty[R any](t reflect.Type, name string, index ...interface{}) (R, error) {
	return as[R](defaultResolver.GetProperty(t, name, typeOf[R](), nil, index...))
}

// SetStaticProperty assigns a static property registered on t.
func SetStaticProperty[V any](t reflect.Type, name string, value V, index ...interface{}) error {
	return defaultResolver.SetProperty(t, name, valueType(value), value, nil, index...)
}

// Invoke calls an instance method whose result is compatible with R.
func Invoke[R any](instance interface{}, name string, args ...interface{}) (R, error) {
	t, err := instanceType(instance)
	if err != nil {
		var zero R
		return zero, err
	}
	return as[R](defaultResolver.Invoke(t, name, typeOf[R](), instance, args...))
}

// InvokeVoid calls an instance method ignoring any result.
func InvokeVoid(instance interface{}, name string, args ...interface{}) error {
	t, err := instanceType(instance)
	if err != nil {
		return err
	}
	_, err = defaultResolver.Invoke(t, name, nil, instance, args...)
	return err
}

// InvokeStatic calls a static method of t whose result is compatible with R.
func InvokeStatic[R any](t reflect.Type, name string, args ...interface{}) (R, error) {
	return as[R](defaultResolver.Invoke(t, name, typeOf[R](), nil, args...))
}

// InvokeStaticVoid calls a static method of t ignoring any result.
func InvokeStaticVoid(t reflect.Type, name string, args ...interface{}) error {
	_, err := defaultResolver.Invoke(t, name, nil, nil, args...)
	return err
}

// Construct calls the constructor of T, or of its element type if T is a
// pointer, that accepts args.
func Construct[T any](args ...interface{}) (T, error) {
	return as[T](defaultResolver.Construct(typeOf[T](), args...))
}

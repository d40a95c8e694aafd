package accessor

import (
	"reflect"
)

type options struct {
	registry *Registry
}

type Option func(*options)

// WithRegistry uses reg instead of Default.
func WithRegistry(reg *Registry) Option {
	return func(o *options) { o.registry = reg }
}

// Instance gives access to the unexported members of a single value.
type Instance[T any] struct {
	resolver *Resolver
	instance *T
}

// Of binds instance, which must not be nil.
func Of[T any](instance *T, opts ...Option) (*Instance[T], error) {
	if instance == nil {
		return nil, &InvalidArgumentError{Name: "instance", Reason: "no instance given"}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Instance[T]{resolver: NewResolver(o.registry), instance: instance}, nil
}

func (i *Instance[T]) Instance() *T { return i.instance }

func (i *Instance[T]) Type() reflect.Type { return typeOf[T]() }

func (i *Instance[T]) Resolver() *Resolver { return i.resolver }

// Field reads an unexported field of any type.
func (i *Instance[T]) Field(name string) (interface{}, error) {
	return i.resolver.GetField(i.Type(), name, nil, i.instance)
}

// SetField assigns an unexported field from the runtime type of value.
func (i *Instance[T]) SetField(name string, value interface{}) error {
	return i.resolver.SetField(i.Type(), name, reflect.TypeOf(value), value, i.instance)
}

// Property reads a registered property of any type.
func (i *Instance[T]) Property(name string, index ...interface{}) (interface{}, error) {
	return i.resolver.GetProperty(i.Type(), name, nil, i.instance, index...)
}

// SetProperty assigns a registered property from the runtime type of value.
func (i *Instance[T]) SetProperty(name string, value interface{}, index ...interface{}) error {
	return i.resolver.SetProperty(i.Type(), name, reflect.TypeOf(value), value, i.instance, index...)
}

// Call invokes an instance method without constraining its result.
func (i *Instance[T]) Call(name string, args ...interface{}) (interface{}, error) {
	return i.resolver.Invoke(i.Type(), name, nil, i.instance, args...)
}

// CallStatic invokes a static method registered on T.
func (i *Instance[T]) CallStatic(name string, args ...interface{}) (interface{}, error) {
	return i.resolver.Invoke(i.Type(), name, nil, nil, args...)
}

// Construct builds a new value of T with a registered constructor.
func (i *Instance[T]) Construct(args ...interface{}) (interface{}, error) {
	return i.resolver.Construct(i.Type(), args...)
}

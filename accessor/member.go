package accessor

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/cretz/testaccessor/accessor/internal/unsafeaccess"
)

type MemberKind int

const (
	KindField MemberKind = iota
	KindProperty
	KindConstructor
	KindMethod
)

func (k MemberKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	}
	return fmt.Sprintf("MemberKind(%d)", int(k))
}

// Member is a resolved field, property, constructor or method. Members are
// immutable and may be kept by callers for repeated access.
type Member interface {
	Name() string
	Kind() MemberKind
	// DeclaringType is the type the member was registered on or, for instance
	// fields, the struct that declares the field.
	DeclaringType() reflect.Type
	Static() bool
	// Type is the field or property type, the method's value result type (nil
	// if none) or the constructor's result type.
	Type() reflect.Type
	String() string
}

// Field is an unexported struct field or a registered static field.
type Field struct {
	declaring reflect.Type
	name      string
	typ       reflect.Type
	static    bool
	// Instance only: the struct type the field was resolved on and the index
	// path to the field from it
	owner reflect.Type
	index []int
	// Static only: pointer to the storage
	storage reflect.Value
}

func (f *Field) Name() string                { return f.name }
func (f *Field) Kind() MemberKind            { return KindField }
func (f *Field) DeclaringType() reflect.Type { return f.declaring }
func (f *Field) Static() bool                { return f.static }
func (f *Field) Type() reflect.Type          { return f.typ }

func (f *Field) String() string {
	return fmt.Sprintf("field %v.%v %v", f.declaring, f.name, f.typ)
}

// Get returns the field value. Instance is ignored for static fields.
func (f *Field) Get(instance interface{}) (interface{}, error) {
	v, err := f.value(instance, false)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Set assigns the field. Instance must be a pointer for instance fields and
// is ignored for static fields.
func (f *Field) Set(instance interface{}, value interface{}) error {
	fieldVal, err := f.value(instance, true)
	if err != nil {
		return err
	}
	v, err := convert(value, f.typ)
	if err != nil {
		return &InvalidArgumentError{Name: "value", Reason: err.Error()}
	}
	fieldVal.Set(v)
	return nil
}

func (f *Field) value(instance interface{}, forSet bool) (reflect.Value, error) {
	if f.static {
		return f.storage.Elem(), nil
	}
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return reflect.Value{}, &InvalidArgumentError{Name: "instance", Reason: "no instance for instance field " + f.name}
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, &InvalidArgumentError{Name: "instance", Reason: "nil " + v.Type().String()}
		}
		v = v.Elem()
	} else if forSet {
		return reflect.Value{}, &InvalidArgumentError{
			Name:   "instance",
			Reason: fmt.Sprintf("must be a pointer to assign field %v, got %v", f.name, v.Type()),
		}
	} else {
		v = unsafeaccess.Addressable(v)
	}
	if v.Type() != f.owner {
		return reflect.Value{}, &InvalidArgumentError{
			Name:   "instance",
			Reason: fmt.Sprintf("expected %v, got %v", f.owner, v.Type()),
		}
	}
	fieldVal, err := unsafeaccess.FieldByIndex(v, f.index)
	if err != nil {
		return reflect.Value{}, &InvalidArgumentError{Name: "instance", Reason: err.Error()}
	}
	return fieldVal, nil
}

// Property is a registered getter and/or setter pair, optionally indexed.
type Property struct {
	declaring reflect.Type
	name      string
	typ       reflect.Type
	static    bool
	index     []reflect.Type

	getter     reflect.Value
	getterRecv reflect.Type
	getterErr  bool
	setter     reflect.Value
	setterRecv reflect.Type
	setterErr  bool
}

func (p *Property) Name() string                { return p.name }
func (p *Property) Kind() MemberKind            { return KindProperty }
func (p *Property) DeclaringType() reflect.Type { return p.declaring }
func (p *Property) Static() bool                { return p.static }
func (p *Property) Type() reflect.Type          { return p.typ }

// IndexTypes are the parameter types of an indexed property, empty otherwise.
func (p *Property) IndexTypes() []reflect.Type { return p.index }

func (p *Property) CanGet() bool { return p.getter.IsValid() }
func (p *Property) CanSet() bool { return p.setter.IsValid() }

func (p *Property) String() string {
	return fmt.Sprintf("property %v.%v%v %v", p.declaring, p.name, formatIndex(p.index), p.typ)
}

// Get calls the getter with the index arguments.
func (p *Property) Get(instance interface{}, index ...interface{}) (interface{}, error) {
	if !p.CanGet() {
		return nil, &InvalidArgumentError{Name: p.name, Reason: "property has no getter"}
	}
	in, err := p.args(instance, p.getterRecv, index)
	if err != nil {
		return nil, err
	}
	return call(p, p.getter, in, p.getterErr)
}

// Set calls the setter with the index arguments followed by the value.
func (p *Property) Set(instance interface{}, value interface{}, index ...interface{}) error {
	if !p.CanSet() {
		return &InvalidArgumentError{Name: p.name, Reason: "property has no setter"}
	}
	in, err := p.args(instance, p.setterRecv, index)
	if err != nil {
		return err
	}
	v, err := convert(value, p.typ)
	if err != nil {
		return &InvalidArgumentError{Name: "value", Reason: err.Error()}
	}
	_, err = call(p, p.setter, append(in, v), p.setterErr)
	return err
}

func (p *Property) args(instance interface{}, recv reflect.Type, index []interface{}) ([]reflect.Value, error) {
	idx, err := convertArgs(index, p.index)
	if err != nil {
		return nil, err
	}
	if p.static {
		return idx, nil
	}
	r, err := receiver(instance, p.declaring, nil, recv)
	if err != nil {
		return nil, err
	}
	return append([]reflect.Value{r}, idx...), nil
}

// Method is a registered method or static function.
type Method struct {
	declaring  reflect.Type
	name       string
	static     bool
	fn         reflect.Value
	recv       reflect.Type
	params     []reflect.Type
	result     reflect.Type
	returnsErr bool
	// Type the method was resolved on, the declaring type unless promoted
	owner reflect.Type
	// Set on resolution when the method is promoted from an embedded type
	path []int
}

func (m *Method) Name() string                { return m.name }
func (m *Method) Kind() MemberKind            { return KindMethod }
func (m *Method) DeclaringType() reflect.Type { return m.declaring }
func (m *Method) Static() bool                { return m.static }
func (m *Method) Type() reflect.Type          { return m.result }

// ParameterTypes excludes the receiver.
func (m *Method) ParameterTypes() []reflect.Type { return m.params }

func (m *Method) String() string {
	prefix := "method"
	if m.static {
		prefix = "static method"
	}
	return fmt.Sprintf("%v %v.%v%v", prefix, m.declaring, m.name, formatSignature(m.params, m.result, m.returnsErr))
}

// Invoke calls the method with args in order. Instance is ignored for static
// methods. Nil arguments are passed as the zero value of the parameter type.
func (m *Method) Invoke(instance interface{}, args ...interface{}) (interface{}, error) {
	in, err := convertArgs(args, m.params)
	if err != nil {
		return nil, err
	}
	if !m.static {
		r, err := receiver(instance, m.owner, m.path, m.recv)
		if err != nil {
			return nil, err
		}
		in = append([]reflect.Value{r}, in...)
	}
	return call(m, m.fn, in, m.returnsErr)
}

// Constructor is a registered function producing a value of its type.
type Constructor struct {
	declaring  reflect.Type
	fn         reflect.Value
	params     []reflect.Type
	result     reflect.Type
	returnsErr bool
}

func (c *Constructor) Name() string                { return c.declaring.Name() }
func (c *Constructor) Kind() MemberKind            { return KindConstructor }
func (c *Constructor) DeclaringType() reflect.Type { return c.declaring }
func (c *Constructor) Static() bool                { return true }
func (c *Constructor) Type() reflect.Type          { return c.result }

func (c *Constructor) ParameterTypes() []reflect.Type { return c.params }

func (c *Constructor) String() string {
	return fmt.Sprintf("constructor %v%v", c.declaring, formatSignature(c.params, c.result, c.returnsErr))
}

// Invoke calls the constructor with args in order.
func (c *Constructor) Invoke(args ...interface{}) (interface{}, error) {
	in, err := convertArgs(args, c.params)
	if err != nil {
		return nil, err
	}
	return call(c, c.fn, in, c.returnsErr)
}

// Instance must be owner or a pointer to it.
func receiver(instance interface{}, owner reflect.Type, path []int, recv reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return reflect.Value{}, &InvalidArgumentError{Name: "instance", Reason: "no instance for instance member"}
	} else if indirect(v.Type()) != owner {
		return reflect.Value{}, &InvalidArgumentError{
			Name:   "instance",
			Reason: fmt.Sprintf("expected %v, got %v", owner, v.Type()),
		}
	}
	r, err := adapt(v, path, recv)
	if err != nil {
		return reflect.Value{}, &InvalidArgumentError{Name: "instance", Reason: err.Error()}
	}
	return r, nil
}

func call(m Member, fn reflect.Value, in []reflect.Value, returnsErr bool) (ret interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, &InvocationError{Member: m, Value: r, Stack: debug.Stack()}
		}
	}()
	out := fn.Call(in)
	if returnsErr {
		last := out[len(out)-1]
		if !last.IsNil() {
			return nil, &InvocationError{Member: m, Err: last.Interface().(error)}
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func formatIndex(index []reflect.Type) string {
	if len(index) == 0 {
		return ""
	}
	s := formatTypes(index)
	return "[" + s[1:len(s)-1] + "]"
}

func formatSignature(params []reflect.Type, result reflect.Type, returnsErr bool) string {
	var outs []string
	if result != nil {
		outs = append(outs, result.String())
	}
	if returnsErr {
		outs = append(outs, "error")
	}
	switch len(outs) {
	case 0:
		return formatTypes(params)
	case 1:
		return formatTypes(params) + " " + outs[0]
	}
	return formatTypes(params) + " (" + strings.Join(outs, ", ") + ")"
}

// FuncNames returns the runtime names of the functions backing m, such as
// pkg.(*T).name for a method expression. Fields have none.
func FuncNames(m Member) []string {
	var fns []reflect.Value
	switch m := m.(type) {
	case *Method:
		fns = append(fns, m.fn)
	case *Constructor:
		fns = append(fns, m.fn)
	case *Property:
		fns = append(fns, m.getter, m.setter)
	}
	var names []string
	for _, fn := range fns {
		if !fn.IsValid() {
			continue
		}
		if f := runtime.FuncForPC(fn.Pointer()); f != nil {
			names = append(names, f.Name())
		}
	}
	return names
}

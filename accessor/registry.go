package accessor

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Registry holds the members reflection cannot reach on its own: methods,
// static functions, constructors, properties and static (package-level)
// fields. Unexported instance fields are found through reflection and are
// never registered.
//
// Members are registered by an adapter in the package that declares them,
// usually from init in a _test.go file.
type Registry struct {
	mu sync.RWMutex
	// Values are never mutated once stored, registration replaces them
	types map[reflect.Type]*typeMembers
}

// Default is the registry used by the package-level helpers.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{types: map[reflect.Type]*typeMembers{}}
}

type typeMembers struct {
	typ          reflect.Type
	staticFields map[string]*Field
	properties   map[propertyKey]*Property
	methods      []*Method
	constructors []*Constructor
}

type propertyKey struct {
	name   string
	static bool
}

func (t *typeMembers) clone() *typeMembers {
	ret := &typeMembers{
		typ:          t.typ,
		staticFields: make(map[string]*Field, len(t.staticFields)),
		properties:   make(map[propertyKey]*Property, len(t.properties)),
		methods:      append([]*Method(nil), t.methods...),
		constructors: append([]*Constructor(nil), t.constructors...),
	}
	for k, v := range t.staticFields {
		ret.staticFields[k] = v
	}
	for k, v := range t.properties {
		ret.properties[k] = v
	}
	return ret
}

// MemberOption declares a member for Register.
type MemberOption func(*registration)

type registration struct {
	typ     reflect.Type
	members []Member
	errs    []error
}

// Register adds members to T. Pointer types register on their element type.
func Register[T any](members ...MemberOption) error {
	return Default.Register(reflect.TypeOf((*T)(nil)).Elem(), members...)
}

// MustRegister is Register that panics on failure, for use in init.
func MustRegister[T any](members ...MemberOption) {
	if err := Register[T](members...); err != nil {
		panic(err)
	}
}

// Register adds members to t. Registering the same type again adds to its
// existing members. Methods with the same name are overloads; static fields
// and properties must have unique names per scope. Nothing is registered if
// any member is invalid.
func (r *Registry) Register(t reflect.Type, members ...MemberOption) error {
	if t == nil {
		return &InvalidArgumentError{Name: "type", Reason: "no type given"}
	}
	t = indirect(t)
	reg := &registration{typ: t}
	for _, member := range members {
		member(reg)
	}
	if len(reg.errs) > 0 {
		return fmt.Errorf("failed registering %v: %w", t, errors.Join(reg.errs...))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var tm *typeMembers
	if existing := r.types[t]; existing != nil {
		tm = existing.clone()
	} else {
		tm = &typeMembers{typ: t, staticFields: map[string]*Field{}, properties: map[propertyKey]*Property{}}
	}
	for _, member := range reg.members {
		switch member := member.(type) {
		case *Field:
			if tm.staticFields[member.name] != nil {
				return fmt.Errorf("failed registering %v: %w", t,
					&InvalidArgumentError{Name: member.name, Reason: "static field already registered"})
			}
			tm.staticFields[member.name] = member
		case *Property:
			key := propertyKey{member.name, member.static}
			if tm.properties[key] != nil {
				return fmt.Errorf("failed registering %v: %w", t,
					&InvalidArgumentError{Name: member.name, Reason: "property already registered"})
			}
			tm.properties[key] = member
		case *Method:
			tm.methods = append(tm.methods, member)
		case *Constructor:
			tm.constructors = append(tm.constructors, member)
		}
	}
	r.types[t] = tm
	return nil
}

func (r *Registry) lookup(t reflect.Type) *typeMembers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[t]
}

// Types returns every registered type sorted by package path and name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	types := make([]reflect.Type, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	r.mu.RUnlock()
	sort.Slice(types, func(i, j int) bool {
		if types[i].PkgPath() != types[j].PkgPath() {
			return types[i].PkgPath() < types[j].PkgPath()
		}
		return types[i].String() < types[j].String()
	})
	return types
}

// Members returns the registered members of t in registration order, static
// fields and properties sorted by name first.
func (r *Registry) Members(t reflect.Type) []Member {
	tm := r.lookup(indirect(t))
	if tm == nil {
		return nil
	}
	var ret []Member
	for _, f := range tm.staticFields {
		ret = append(ret, f)
	}
	for _, p := range tm.properties {
		ret = append(ret, p)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	for _, m := range tm.methods {
		ret = append(ret, m)
	}
	for _, c := range tm.constructors {
		ret = append(ret, c)
	}
	return ret
}

// WithMethod registers an instance method. The first parameter of fn must be
// the receiver, T or *T, so method expressions like (*T).name can be given
// directly. Functions may return at most one value plus a trailing error.
func WithMethod(name string, fn interface{}) MemberOption {
	return func(r *registration) {
		if !r.name(name) {
			return
		}
		fv, ft, ok := r.function(name, fn)
		if !ok || !r.receiver(name, ft) {
			return
		}
		result, returnsErr, ok := r.results(name, ft)
		if !ok {
			return
		}
		r.members = append(r.members, &Method{
			declaring:  r.typ,
			name:       name,
			fn:         fv,
			recv:       ft.In(0),
			owner:      r.typ,
			params:     params(ft, 1, ft.NumIn()),
			result:     result,
			returnsErr: returnsErr,
		})
	}
}

// WithStaticMethod registers a package-level function under the type.
func WithStaticMethod(name string, fn interface{}) MemberOption {
	return func(r *registration) {
		if !r.name(name) {
			return
		}
		fv, ft, ok := r.function(name, fn)
		if !ok {
			return
		}
		result, returnsErr, ok := r.results(name, ft)
		if !ok {
			return
		}
		r.members = append(r.members, &Method{
			declaring:  r.typ,
			name:       name,
			static:     true,
			fn:         fv,
			params:     params(ft, 0, ft.NumIn()),
			result:     result,
			returnsErr: returnsErr,
		})
	}
}

// WithConstructor registers an unexported function or a function literal
// returning T or *T, optionally followed by an error.
func WithConstructor(fn interface{}) MemberOption {
	return func(r *registration) {
		name := "constructor of " + r.typ.String()
		fv, ft, ok := r.function(name, fn)
		if !ok {
			return
		} else if fnName := shortFuncName(fv); token.IsExported(fnName) {
			r.fail(name, "function %v is exported", fnName)
			return
		}
		result, returnsErr, ok := r.results(name, ft)
		if !ok {
			return
		} else if result == nil || indirect(result) != r.typ {
			r.fail(name, "must return %v or %v, got %v", r.typ, reflect.PtrTo(r.typ), ft)
			return
		}
		r.members = append(r.members, &Constructor{
			declaring:  r.typ,
			fn:         fv,
			params:     params(ft, 0, ft.NumIn()),
			result:     result,
			returnsErr: returnsErr,
		})
	}
}

// WithStaticField registers a package-level variable under the type. Ptr must
// be a non-nil pointer to the variable.
func WithStaticField(name string, ptr interface{}) MemberOption {
	return func(r *registration) {
		if !r.name(name) {
			return
		}
		pv := reflect.ValueOf(ptr)
		if pv.Kind() != reflect.Ptr || pv.IsNil() {
			r.fail(name, "expected non-nil pointer to the variable, got %T", ptr)
			return
		}
		r.members = append(r.members, &Field{
			declaring: r.typ,
			name:      name,
			typ:       pv.Type().Elem(),
			static:    true,
			storage:   pv,
		})
	}
}

// WithProperty registers an instance property. Getter is
// func(recv, index...) V and setter is func(recv, index..., V); either may be
// nil but not both.
func WithProperty(name string, getter, setter interface{}) MemberOption {
	return func(r *registration) { r.property(name, getter, setter, false) }
}

// WithStaticProperty is WithProperty without receivers.
func WithStaticProperty(name string, getter, setter interface{}) MemberOption {
	return func(r *registration) { r.property(name, getter, setter, true) }
}

func (r *registration) property(name string, getter, setter interface{}, static bool) {
	if !r.name(name) {
		return
	} else if getter == nil && setter == nil {
		r.fail(name, "property needs a getter or a setter")
		return
	}
	offset := 1
	if static {
		offset = 0
	}
	p := &Property{declaring: r.typ, name: name, static: static}
	if getter != nil {
		gv, gt, ok := r.function(name, getter)
		if !ok || (!static && !r.receiver(name, gt)) {
			return
		}
		result, returnsErr, ok := r.results(name, gt)
		if !ok {
			return
		} else if result == nil {
			r.fail(name, "getter must return a value")
			return
		}
		p.typ, p.index = result, params(gt, offset, gt.NumIn())
		p.getter, p.getterErr = gv, returnsErr
		if !static {
			p.getterRecv = gt.In(0)
		}
	}
	if setter != nil {
		sv, st, ok := r.function(name, setter)
		if !ok || (!static && !r.receiver(name, st)) {
			return
		}
		if st.NumIn()-offset < 1 {
			r.fail(name, "setter must take the value as its last parameter")
			return
		}
		result, returnsErr, ok := r.results(name, st)
		if !ok {
			return
		} else if result != nil {
			r.fail(name, "setter may only return an error")
			return
		}
		index, value := params(st, offset, st.NumIn()-1), st.In(st.NumIn()-1)
		if p.getter.IsValid() {
			if value != p.typ || !equalTypes(index, p.index) {
				r.fail(name, "setter %v does not match getter %v", st, p.getter.Type())
				return
			}
		} else {
			p.typ, p.index = value, index
		}
		p.setter, p.setterErr = sv, returnsErr
		if !static {
			p.setterRecv = st.In(0)
		}
	}
	r.members = append(r.members, p)
}

func (r *registration) fail(name, reason string, args ...interface{}) {
	r.errs = append(r.errs, &InvalidArgumentError{Name: name, Reason: fmt.Sprintf(reason, args...)})
}

// Public members are reachable without an accessor so only unexported names
// are accepted.
func (r *registration) name(name string) bool {
	if name == "" {
		r.fail("name", "no member name given")
		return false
	} else if token.IsExported(name) {
		r.fail(name, "member is exported")
		return false
	}
	return true
}

func (r *registration) function(name string, fn interface{}) (reflect.Value, reflect.Type, bool) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		r.fail(name, "expected function, got %T", fn)
		return reflect.Value{}, nil, false
	} else if fv.Type().IsVariadic() {
		r.fail(name, "variadic functions are not supported")
		return reflect.Value{}, nil, false
	}
	return fv, fv.Type(), true
}

func (r *registration) receiver(name string, ft reflect.Type) bool {
	if ft.NumIn() == 0 || indirect(ft.In(0)) != r.typ {
		r.fail(name, "first parameter must be a %v or %v receiver, got %v", r.typ, reflect.PtrTo(r.typ), ft)
		return false
	}
	return true
}

// A lone error result is a trailing error, not a value.
func (r *registration) results(name string, ft reflect.Type) (result reflect.Type, returnsErr bool, ok bool) {
	n := ft.NumOut()
	returnsErr = n > 0 && ft.Out(n-1) == errorType
	if returnsErr {
		n--
	}
	switch n {
	case 0:
		return nil, returnsErr, true
	case 1:
		return ft.Out(0), returnsErr, true
	}
	r.fail(name, "at most one result besides a trailing error is supported, got %v", ft)
	return nil, false, false
}

// Last element of the runtime name of fn, so pkg.(*T).name-fm and
// pkg.newT[...] become name and newT. Function literals end in funcN.
func shortFuncName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return ""
	}
	name := strings.TrimSuffix(strings.TrimSuffix(f.Name(), "-fm"), "[...]")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func params(ft reflect.Type, from, to int) []reflect.Type {
	ret := make([]reflect.Type, 0, to-from)
	for i := from; i < to; i++ {
		ret = append(ret, ft.In(i))
	}
	return ret
}

func equalTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

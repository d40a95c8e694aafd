// Package accessor resolves and uses unexported members of Go types from
// tests: struct fields through reflection and, for what reflection cannot
// call, methods, package-level functions and variables, constructors and
// properties registered from the declaring package.
//
// Lookups take the type, the member name, the runtime types of any arguments
// and optionally an expected result type. Exactly one member must match or a
// typed error is returned; overloads are never ranked.
package accessor

import (
	"reflect"
)

// MemberQuery describes a single member lookup.
type MemberQuery struct {
	Type reflect.Type
	Name string
	Kind MemberKind
	// Runtime argument types for methods and constructors, nil for a nil
	// argument
	ArgumentTypes []reflect.Type
	// Expected result type for methods and expected value type for fields and
	// properties. Nil means unconstrained.
	ReturnType reflect.Type
	Static     bool
}

// Resolver finds the single member of a type matching a query. It keeps no
// state besides the registry and is safe for concurrent use.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over reg, or Default if reg is nil.
func NewResolver(reg *Registry) *Resolver {
	if reg == nil {
		reg = Default
	}
	return &Resolver{registry: reg}
}

// Registry is the registry members are resolved from.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve dispatches to the Resolve call for the query's kind.
func (r *Resolver) Resolve(q MemberQuery) (Member, error) {
	var m Member
	var err error
	switch q.Kind {
	case KindField:
		m, err = nilIfErr(r.ResolveField(q.Type, q.Name, q.ReturnType, q.Static))
	case KindProperty:
		m, err = nilIfErr(r.ResolveProperty(q.Type, q.Name, q.ReturnType, q.Static))
	case KindConstructor:
		if q.Type == nil {
			return nil, &InvalidArgumentError{Name: "type", Reason: "no type given"}
		}
		m, err = nilIfErr(r.ResolveConstructor(q.Type, q.ArgumentTypes))
	case KindMethod:
		m, err = nilIfErr(r.ResolveMethod(q.Type, q.Name, q.ArgumentTypes, q.ReturnType, q.Static))
	default:
		return nil, &InvalidArgumentError{Name: "kind", Reason: "unknown " + q.Kind.String()}
	}
	return m, err
}

func nilIfErr[M Member](m M, err error) (Member, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

func checkQuery(t reflect.Type, name string) error {
	if t == nil {
		return &InvalidArgumentError{Name: "type", Reason: "no type given"}
	} else if name == "" {
		return &InvalidArgumentError{Name: "name", Reason: "no member name given"}
	}
	return nil
}

// ResolveField finds an unexported instance field, or a registered static
// field, named name on t or, failing that, on its embedded types shallowest
// first. If expected is non-nil, the field type must be compatible with it.
func (r *Resolver) ResolveField(t reflect.Type, name string, expected reflect.Type, static bool) (*Field, error) {
	if err := checkQuery(t, name); err != nil {
		return nil, err
	}
	t = indirect(t)
	f := r.findField(t, name, static)
	if f == nil || (expected != nil && !Compatible(f.typ, expected)) {
		return nil, &MemberNotFoundError{Type: t, Name: name, Kind: KindField, Static: static, ExpectedType: expected}
	}
	return f, nil
}

func (r *Resolver) findField(t reflect.Type, name string, static bool) *Field {
	for _, level := range embeddingLevels(t, false) {
		for _, e := range level {
			if static {
				if tm := r.registry.lookup(e.typ); tm != nil && tm.staticFields[name] != nil {
					return tm.staticFields[name]
				}
				continue
			} else if e.typ.Kind() != reflect.Struct {
				continue
			}
			for i := 0; i < e.typ.NumField(); i++ {
				sf := e.typ.Field(i)
				if sf.Name != name || sf.IsExported() {
					continue
				}
				return &Field{
					declaring: e.typ,
					name:      name,
					typ:       sf.Type,
					owner:     t,
					index:     append(append(make([]int, 0, len(e.path)+1), e.path...), i),
				}
			}
		}
	}
	return nil
}

// ResolveProperty finds a registered property named name on t itself.
// Embedded types are not searched. Index arguments play no part in the lookup.
func (r *Resolver) ResolveProperty(t reflect.Type, name string, expected reflect.Type, static bool) (*Property, error) {
	if err := checkQuery(t, name); err != nil {
		return nil, err
	}
	t = indirect(t)
	var p *Property
	if tm := r.registry.lookup(t); tm != nil {
		p = tm.properties[propertyKey{name, static}]
	}
	if p == nil || (expected != nil && !Compatible(p.typ, expected)) {
		return nil, &MemberNotFoundError{Type: t, Name: name, Kind: KindProperty, Static: static, ExpectedType: expected}
	}
	return p, nil
}

// ResolveMethod finds the single registered method named name whose
// parameters accept argTypes. Instance methods are searched on t and then on
// its embedded types, stopping at the shallowest depth declaring the name.
// Static methods are only searched on t. If returnType is non-nil, methods
// whose result is not compatible with it are not candidates.
func (r *Resolver) ResolveMethod(
	t reflect.Type,
	name string,
	argTypes []reflect.Type,
	returnType reflect.Type,
	static bool,
) (*Method, error) {
	if err := checkQuery(t, name); err != nil {
		return nil, err
	}
	t = indirect(t)
	var possible []*Method
	for _, m := range r.methodsNamed(t, name, static) {
		if !matchParameters(m.params, argTypes) {
			continue
		} else if returnType != nil && !Compatible(m.result, returnType) {
			continue
		}
		possible = append(possible, m)
	}

	switch len(possible) {
	case 0:
		return nil, &MethodNotFoundError{Type: t, Name: name, ArgumentTypes: argTypes, ReturnType: returnType, Static: static}
	case 1:
		return possible[0], nil
	}
	candidates := make([]Member, len(possible))
	for i, m := range possible {
		candidates[i] = m
	}
	return nil, &AmbiguousMatchError{Type: t, Name: name, Kind: KindMethod, ArgumentTypes: argTypes, Candidates: candidates}
}

func (r *Resolver) methodsNamed(t reflect.Type, name string, static bool) []*Method {
	if static {
		var ret []*Method
		if tm := r.registry.lookup(t); tm != nil {
			for _, m := range tm.methods {
				if m.static && m.name == name {
					ret = append(ret, m)
				}
			}
		}
		return ret
	}
	for _, level := range embeddingLevels(t, false) {
		var ret []*Method
		for _, e := range level {
			tm := r.registry.lookup(e.typ)
			if tm == nil {
				continue
			}
			for _, m := range tm.methods {
				if m.static || m.name != name {
					continue
				}
				if len(e.path) > 0 {
					promoted := *m
					promoted.owner, promoted.path = t, e.path
					m = &promoted
				}
				ret = append(ret, m)
			}
		}
		// Shallower names hide deeper ones
		if len(ret) > 0 {
			return ret
		}
	}
	return nil
}

// ResolveConstructor finds the single constructor registered on t whose
// parameters accept argTypes.
func (r *Resolver) ResolveConstructor(t reflect.Type, argTypes []reflect.Type) (*Constructor, error) {
	if t == nil {
		return nil, &InvalidArgumentError{Name: "type", Reason: "no type given"}
	}
	t = indirect(t)
	var possible []*Constructor
	if tm := r.registry.lookup(t); tm != nil {
		for _, c := range tm.constructors {
			if matchParameters(c.params, argTypes) {
				possible = append(possible, c)
			}
		}
	}

	switch len(possible) {
	case 0:
		return nil, &ConstructorNotFoundError{Type: t, ArgumentTypes: argTypes}
	case 1:
		return possible[0], nil
	}
	candidates := make([]Member, len(possible))
	for i, c := range possible {
		candidates[i] = c
	}
	return nil, &AmbiguousMatchError{
		Type:          t,
		Name:          t.Name(),
		Kind:          KindConstructor,
		ArgumentTypes: argTypes,
		Candidates:    candidates,
	}
}

// GetField reads a field of t. The field is static if instance is nil.
func (r *Resolver) GetField(t reflect.Type, name string, expected reflect.Type, instance interface{}) (interface{}, error) {
	f, err := r.ResolveField(t, name, expected, instance == nil)
	if err != nil {
		return nil, err
	}
	return f.Get(instance)
}

// SetField assigns a field of t. The field is static if instance is nil.
// ValueType is the runtime type of value, or its declared type if value is
// nil; it must equal or be compatible with the field type. A nil valueType is
// accepted for fields that can hold nil.
func (r *Resolver) SetField(t reflect.Type, name string, valueType reflect.Type, value, instance interface{}) error {
	static := instance == nil
	f, err := r.ResolveField(t, name, nil, static)
	if err != nil {
		return err
	} else if !assignable(valueType, f.typ) {
		return &MemberNotFoundError{Type: indirect(t), Name: name, Kind: KindField, Static: static, ExpectedType: valueType}
	}
	return f.Set(instance, value)
}

// GetProperty reads a property of t. The property is static if instance is
// nil.
func (r *Resolver) GetProperty(
	t reflect.Type,
	name string,
	expected reflect.Type,
	instance interface{},
	index ...interface{},
) (interface{}, error) {
	p, err := r.ResolveProperty(t, name, expected, instance == nil)
	if err != nil {
		return nil, err
	}
	return p.Get(instance, index...)
}

// SetProperty assigns a property of t with the same type rules as SetField.
func (r *Resolver) SetProperty(
	t reflect.Type,
	name string,
	valueType reflect.Type,
	value interface{},
	instance interface{},
	index ...interface{},
) error {
	static := instance == nil
	p, err := r.ResolveProperty(t, name, nil, static)
	if err != nil {
		return err
	} else if !p.CanSet() || !assignable(valueType, p.typ) {
		return &MemberNotFoundError{Type: indirect(t), Name: name, Kind: KindProperty, Static: static, ExpectedType: valueType}
	}
	return p.Set(instance, value, index...)
}

// Invoke resolves a method by the runtime types of args and calls it. The
// method is static if instance is nil. A nil returnType accepts any method
// regardless of its result.
func (r *Resolver) Invoke(
	t reflect.Type,
	name string,
	returnType reflect.Type,
	instance interface{},
	args ...interface{},
) (interface{}, error) {
	m, err := r.ResolveMethod(t, name, TypesOf(args...), returnType, instance == nil)
	if err != nil {
		return nil, err
	}
	return m.Invoke(instance, args...)
}

// Construct resolves a constructor by the runtime types of args and calls it.
func (r *Resolver) Construct(t reflect.Type, args ...interface{}) (interface{}, error) {
	c, err := r.ResolveConstructor(t, TypesOf(args...))
	if err != nil {
		return nil, err
	}
	return c.Invoke(args...)
}

func assignable(valueType, to reflect.Type) bool {
	if valueType == nil {
		return nillable(to)
	}
	return valueType == to || Compatible(valueType, to)
}

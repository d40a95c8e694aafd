package accessor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMethodNotFound      = errors.New("method not found")
	ErrConstructorNotFound = errors.New("constructor not found")
	ErrAmbiguousMatch      = errors.New("ambiguous match")
)

// InvalidArgumentError is returned when a required identifier is missing or
// a registration is malformed.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %v: %v", e.Name, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// MemberNotFoundError is returned when a field or property does not exist at
// the requested scope or exists with an incompatible type.
type MemberNotFoundError struct {
	Type   reflect.Type
	Name   string
	Kind   MemberKind
	Static bool
	// Nil if the type was not constrained
	ExpectedType reflect.Type
}

func (e *MemberNotFoundError) Error() string {
	var b strings.Builder
	if e.Static {
		b.WriteString("static ")
	}
	fmt.Fprintf(&b, "%v %v", e.Kind, e.Name)
	if e.ExpectedType != nil {
		fmt.Fprintf(&b, " of type %v", e.ExpectedType)
	}
	fmt.Fprintf(&b, " not found on %v", e.Type)
	return b.String()
}

func (e *MemberNotFoundError) Unwrap() error { return ErrMemberNotFound }

// MethodNotFoundError is returned when no method matches a name and argument
// signature. It also matches ErrMemberNotFound with errors.Is.
type MethodNotFoundError struct {
	Type          reflect.Type
	Name          string
	ArgumentTypes []reflect.Type
	// Nil if the return type was not constrained
	ReturnType reflect.Type
	Static     bool
}

func (e *MethodNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("no ")
	if e.Static {
		b.WriteString("static ")
	}
	fmt.Fprintf(&b, "method %v%v", e.Name, formatTypes(e.ArgumentTypes))
	if e.ReturnType != nil {
		fmt.Fprintf(&b, " returning %v", e.ReturnType)
	}
	fmt.Fprintf(&b, " found on %v", e.Type)
	return b.String()
}

func (e *MethodNotFoundError) Unwrap() error { return ErrMethodNotFound }

func (e *MethodNotFoundError) Is(target error) bool { return target == ErrMemberNotFound }

// ConstructorNotFoundError is returned when no constructor matches an argument
// signature.
type ConstructorNotFoundError struct {
	Type          reflect.Type
	ArgumentTypes []reflect.Type
}

func (e *ConstructorNotFoundError) Error() string {
	return fmt.Sprintf("no constructor%v found for %v", formatTypes(e.ArgumentTypes), e.Type)
}

func (e *ConstructorNotFoundError) Unwrap() error { return ErrConstructorNotFound }

// AmbiguousMatchError is returned when more than one method or constructor
// matches. There is no tie-breaking between candidates.
type AmbiguousMatchError struct {
	Type          reflect.Type
	Name          string
	Kind          MemberKind
	ArgumentTypes []reflect.Type
	Candidates    []Member
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%v %v candidates for %v%v on %v", len(e.Candidates), e.Kind, e.Name,
		formatTypes(e.ArgumentTypes), e.Type)
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// InvocationError is returned when an invoked member returns a non-nil error
// or panics.
type InvocationError struct {
	Member Member
	// Set when the member returned an error
	Err error
	// Set when the member panicked
	Value interface{}
	Stack []byte
}

func (e *InvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invoking %v failed: %v", e.Member, e.Err)
	}
	return fmt.Sprintf("invoking %v panicked: %v", e.Member, e.Value)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func formatTypes(types []reflect.Type) string {
	strs := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			strs[i] = "<nil>"
		} else {
			strs[i] = t.String()
		}
	}
	return "(" + strings.Join(strs, ", ") + ")"
}

// Package unsafeaccess reads and writes struct fields regardless of whether
// they are exported.
package unsafeaccess

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/modern-go/reflect2"
)

// Addressable returns v if it can be addressed, otherwise an addressable
// copy of it. Mutations through a copy are not visible to the caller's value.
func Addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// Field returns the i'th field of the addressable struct value v. The result
// is addressable and settable even for unexported fields.
func Field(v reflect.Value, i int) reflect.Value {
	// By offset via reflect2, so the result never carries the read-only flag
	// reflect puts on unexported fields
	field := reflect2.Type2(v.Type()).(reflect2.StructType).Field(i)
	ptr := field.UnsafeGet(unsafe.Pointer(v.UnsafeAddr()))
	return reflect.NewAt(field.Type().Type1(), ptr).Elem()
}

// FieldByIndex walks index from the addressable struct value v, following
// embedded pointers. Fails if an embedded pointer along the way is nil or a
// value along the way is not a struct.
func FieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for _, i := range index {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, fmt.Errorf("nil embedded %v", v.Type())
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%v is not a struct", v.Type())
		}
		v = Field(v, i)
	}
	return v, nil
}

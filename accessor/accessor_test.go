package accessor_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/cretz/testaccessor/accessor"
	"github.com/cretz/testaccessor/accessor/internal/testtypes"
	"github.com/stretchr/testify/require"
)

func TestStaticField(t *testing.T) {
	require := require.New(t)

	v, err := accessor.GetStaticField[string](staticType, "getField")
	require.NoError(err)
	require.Equal(testtypes.StaticGetDefault, v)

	require.NoError(accessor.SetStaticField(staticType, "setField", "some value"))
	require.Equal("some value", testtypes.StaticSetField())
	v, err = accessor.GetStaticField[string](staticType, "setField")
	require.NoError(err)
	require.Equal("some value", v)

	defer func() { require.NoError(accessor.SetStaticField(boxType, "rate", testtypes.RateDefault)) }()
	require.NoError(accessor.SetStaticField(boxType, "rate", 100.0))
	require.Equal(100.0, testtypes.Rate())

	// Wrong types
	require.ErrorIs(accessor.SetStaticField(boxType, "rate", "100"), accessor.ErrMemberNotFound)
	_, err = accessor.GetStaticField[int](boxType, "rate")
	require.ErrorIs(err, accessor.ErrMemberNotFound)

	_, err = accessor.GetStaticField[string](nil, "getField")
	require.ErrorIs(err, accessor.ErrInvalidArgument)
}

func TestStaticFieldEmbeddedGeneric(t *testing.T) {
	require := require.New(t)
	holderType := reflect.TypeOf(testtypes.Holder[*testtypes.Node]{})

	node := &testtypes.Node{}
	require.NoError(accessor.SetStaticField(holderType, "current", node))
	require.Same(node, testtypes.Current())

	// Through the embedding type
	v, err := accessor.GetStaticField[*testtypes.Node](nodeType, "current")
	require.NoError(err)
	require.Same(node, v)

	// Nil is accepted by pointer fields
	require.NoError(accessor.SetStaticField(holderType, "current", nil))
	require.Nil(testtypes.Current())
	// But not by others
	require.ErrorIs(accessor.SetStaticField(staticType, "setField", nil), accessor.ErrMemberNotFound)
}

func TestInstanceField(t *testing.T) {
	require := require.New(t)
	box := testtypes.NewBox()

	count, err := accessor.GetField[int](box, "count")
	require.NoError(err)
	require.Equal(testtypes.CountDefault, count)
	// Values work for reads
	count, err = accessor.GetField[int](*box, "count")
	require.NoError(err)
	require.Equal(testtypes.CountDefault, count)

	now := time.Now()
	require.NoError(accessor.SetField(box, "stamp", now))
	require.Equal(now, box.Stamp())
	require.NoError(accessor.SetField(box, "count", 5))
	require.Equal(5, box.Count())

	// Values cannot be assigned
	require.ErrorIs(accessor.SetField(*box, "count", 6), accessor.ErrInvalidArgument)
	require.ErrorIs(accessor.SetField(box, "count", "6"), accessor.ErrMemberNotFound)
	require.ErrorIs(accessor.SetField(box, "Invalid", 0), accessor.ErrMemberNotFound)
	require.ErrorIs(accessor.SetField(box, "", 0), accessor.ErrInvalidArgument)
	_, err = accessor.GetField[int](box, "Invalid")
	require.ErrorIs(err, accessor.ErrMemberNotFound)
	_, err = accessor.GetField[int](nil, "count")
	require.ErrorIs(err, accessor.ErrInvalidArgument)

	// Generic embedded field
	parent := &testtypes.Node{}
	require.NoError(accessor.SetField(&testtypes.Node{}, "name", "child"))
	require.NoError(accessor.SetField(parent, "value", parent))
	require.Same(parent, parent.Value())
	v, err := accessor.GetField[*testtypes.Node](parent, "value")
	require.NoError(err)
	require.Same(parent, v)
}

func TestInvoke(t *testing.T) {
	require := require.New(t)
	box := testtypes.NewBox()

	ret, err := accessor.Invoke[string](box, "touch", "a touch value")
	require.NoError(err)
	require.Equal("a touch value", ret)
	require.Equal("a touch value", box.TouchValue)

	ret, err = accessor.Invoke[string](box, "touch")
	require.NoError(err)
	require.Equal(testtypes.TouchDefault, ret)
	require.Equal(testtypes.TouchDefault, box.TouchValue)

	// Nil is the zero value
	ret, err = accessor.Invoke[string](box, "touch", nil)
	require.NoError(err)
	require.Empty(ret)
	require.Empty(box.TouchValue)

	require.NoError(accessor.InvokeVoid(box, "returnsVoid"))
	require.True(box.ReturnsVoidCalled)

	// Value receiver
	doubled, err := accessor.Invoke[int](box, "doubled")
	require.NoError(err)
	require.Equal(testtypes.CountDefault*2, doubled)
	doubled, err = accessor.Invoke[int](*box, "doubled")
	require.NoError(err)
	require.Equal(testtypes.CountDefault*2, doubled)

	// Interface parameter
	ret, err = accessor.Invoke[string](box, "describe", testtypes.Label("label"))
	require.NoError(err)
	require.Equal("box label", ret)
	// Interface result request
	str, err := accessor.Invoke[fmt.Stringer](box, "describe", testtypes.Label("label"))
	require.ErrorIs(err, accessor.ErrMethodNotFound)
	require.Nil(str)

	_, err = accessor.Invoke[int](box, "touch")
	require.ErrorIs(err, accessor.ErrMethodNotFound)
	_, err = accessor.Invoke[string](box, "ambiguous", nil)
	require.ErrorIs(err, accessor.ErrAmbiguousMatch)
	_, err = accessor.Invoke[string](box, "Invalid")
	require.ErrorIs(err, accessor.ErrMethodNotFound)
	_, err = accessor.Invoke[string](box, "touch", time.Now())
	require.ErrorIs(err, accessor.ErrMethodNotFound)
	_, err = accessor.Invoke[string](box, "")
	require.ErrorIs(err, accessor.ErrInvalidArgument)
}

func TestInvokeSubclass(t *testing.T) {
	require := require.New(t)
	sub := &testtypes.SubBox{Box: *testtypes.NewBox()}

	// The *SubBox argument is passed as its embedded *Box
	ret, err := accessor.Invoke[*testtypes.Box](sub, "echo", sub)
	require.NoError(err)
	require.Same(&sub.Box, ret)

	doubled, err := accessor.Invoke[int](sub, "doubled")
	require.NoError(err)
	require.Equal(-1, doubled)

	str, err := accessor.Invoke[string](sub, "touch", "from sub")
	require.NoError(err)
	require.Equal("from sub", str)
	require.Equal("from sub", sub.TouchValue)
}

func TestInvokeErrors(t *testing.T) {
	require := require.New(t)
	box := testtypes.NewBox()

	err := accessor.InvokeVoid(box, "fail", "failure message")
	var invokeErr *accessor.InvocationError
	require.ErrorAs(err, &invokeErr)
	require.EqualError(invokeErr.Err, "failure message")
	require.Equal("fail", invokeErr.Member.Name())

	err = accessor.InvokeVoid(box, "explode")
	require.ErrorAs(err, &invokeErr)
	require.Nil(invokeErr.Err)
	require.Equal("boom", invokeErr.Value)
	require.NotEmpty(invokeErr.Stack)
}

func TestInvokeStatic(t *testing.T) {
	require := require.New(t)

	ret, err := accessor.InvokeStatic[string](staticType, "invokeWithReturn")
	require.NoError(err)
	require.Equal(testtypes.StaticReturnValue, ret)
	ret, err = accessor.InvokeStatic[string](staticType, "invokeWithReturn", "arg")
	require.NoError(err)
	require.Equal("arg", ret)

	require.NoError(accessor.InvokeStaticVoid(staticType, "invokeVoid"))
	require.True(testtypes.InvokeVoidCalled())

	// Static members on a type with instance state
	require.NoError(accessor.InvokeStaticVoid(boxType, "fill", "filled"))
	require.Equal("filled", testtypes.Filled())
	ret, err = accessor.InvokeStatic[string](boxType, "getName")
	require.NoError(err)
	require.Equal(testtypes.Name, ret)

	_, err = accessor.InvokeStatic[string](nil, "getName")
	require.ErrorIs(err, accessor.ErrInvalidArgument)
	_, err = accessor.InvokeStatic[string](boxType, "touch")
	require.ErrorIs(err, accessor.ErrMethodNotFound)
}

func TestProperty(t *testing.T) {
	require := require.New(t)
	box := testtypes.NewBox()

	require.NoError(accessor.SetProperty(box, "item", 5, "key"))
	v, err := accessor.GetProperty[int](box, "item", "key")
	require.NoError(err)
	require.Equal(5, v)
	size, err := accessor.GetProperty[int](box, "size")
	require.NoError(err)
	require.Equal(1, size)

	// Index count must match
	_, err = accessor.GetProperty[int](box, "item")
	require.ErrorIs(err, accessor.ErrInvalidArgument)
	// No setter
	require.ErrorIs(accessor.SetProperty(box, "size", 1), accessor.ErrMemberNotFound)
	_, err = accessor.GetProperty[string](box, "item", "key")
	require.ErrorIs(err, accessor.ErrMemberNotFound)

	defer func() { require.NoError(accessor.SetStaticProperty(boxType, "defaultLabel", "none")) }()
	require.NoError(accessor.SetStaticProperty(boxType, "defaultLabel", "changed"))
	require.Equal("changed", testtypes.DefaultLabel())
	label, err := accessor.GetStaticProperty[string](boxType, "defaultLabel")
	require.NoError(err)
	require.Equal("changed", label)
}

func TestConstruct(t *testing.T) {
	require := require.New(t)

	rec, err := accessor.Construct[*testtypes.Record]("Snoopy")
	require.NoError(err)
	require.Equal("Snoopy", rec.Data)

	rec, err = accessor.Construct[*testtypes.Record]()
	require.NoError(err)
	require.Equal(testtypes.ConstructorDefault, rec.Data)

	// Constructor returning a value
	val, err := accessor.Construct[testtypes.Record]("counted", 3)
	require.NoError(err)
	require.Equal(3, val.N())
	// Dereferenced pointer result
	val, err = accessor.Construct[testtypes.Record]("deref")
	require.NoError(err)
	require.Equal("deref", val.Data)

	_, err = accessor.Construct[*testtypes.Record]("counted", -1)
	var invokeErr *accessor.InvocationError
	require.ErrorAs(err, &invokeErr)

	_, err = accessor.Construct[*testtypes.Pair](nil)
	require.ErrorIs(err, accessor.ErrAmbiguousMatch)
	pair, err := accessor.Construct[*testtypes.Pair](12)
	require.NoError(err)
	require.Equal("12", pair.Left)

	_, err = accessor.Construct[*testtypes.Record](1.5)
	require.ErrorIs(err, accessor.ErrConstructorNotFound)
}

func TestInstance(t *testing.T) {
	require := require.New(t)

	_, err := accessor.Of[testtypes.Box](nil)
	require.ErrorIs(err, accessor.ErrInvalidArgument)

	box := testtypes.NewBox()
	inst, err := accessor.Of(box)
	require.NoError(err)
	require.Same(box, inst.Instance())
	require.Equal(boxType, inst.Type())

	v, err := inst.Field("count")
	require.NoError(err)
	require.Equal(testtypes.CountDefault, v)
	require.NoError(inst.SetField("count", 7))
	require.Equal(7, box.Count())

	v, err = inst.Call("touch", "called")
	require.NoError(err)
	require.Equal("called", v)
	v, err = inst.Call("returnsVoid")
	require.NoError(err)
	require.Nil(v)

	require.NoError(inst.SetProperty("item", 3, "a"))
	v, err = inst.Property("item", "a")
	require.NoError(err)
	require.Equal(3, v)

	v, err = inst.CallStatic("getName")
	require.NoError(err)
	require.Equal(testtypes.Name, v)

	// Separate registry without the fixtures
	empty, err := accessor.Of(box, accessor.WithRegistry(accessor.NewRegistry()))
	require.NoError(err)
	_, err = empty.Call("touch", "called")
	require.ErrorIs(err, accessor.ErrMethodNotFound)
	// Fields need no registration
	_, err = empty.Field("count")
	require.NoError(err)
}

func TestConcurrentInvoke(t *testing.T) {
	boxes := make([]*testtypes.Box, 32)
	errs := make([]error, len(boxes))
	var wg sync.WaitGroup
	for i := range boxes {
		boxes[i] = testtypes.NewBox()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = accessor.Invoke[string](boxes[i], "touch", fmt.Sprint(i))
		}(i)
	}
	wg.Wait()
	for i, box := range boxes {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprint(i), box.TouchValue)
	}
}

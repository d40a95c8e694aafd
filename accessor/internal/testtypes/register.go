package testtypes

import (
	"reflect"

	"github.com/cretz/testaccessor/accessor"
)

func init() {
	if err := Register(accessor.Default); err != nil {
		panic(err)
	}
}

// Register adds every fixture to reg.
func Register(reg *accessor.Registry) error {
	for _, r := range registrations {
		if err := reg.Register(r.typ, r.members...); err != nil {
			return err
		}
	}
	return nil
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

type registration struct {
	typ     reflect.Type
	members []accessor.MemberOption
}

var registrations = []registration{
	{
		typ: typeOf[Box](),
		members: []accessor.MemberOption{
			accessor.WithMethod("touch", (*Box).touch),
			accessor.WithMethod("touch", (*Box).touchDefault),
			accessor.WithMethod("ambiguous", (*Box).ambiguousString),
			accessor.WithMethod("ambiguous", (*Box).ambiguousInt),
			accessor.WithMethod("returnsVoid", (*Box).returnsVoid),
			accessor.WithMethod("fail", (*Box).fail),
			accessor.WithMethod("explode", (*Box).explode),
			accessor.WithMethod("doubled", Box.doubled),
			accessor.WithMethod("describe", (*Box).describe),
			accessor.WithMethod("measure", (*Box).measure),
			accessor.WithMethod("measure", (*Box).measureInt),
			accessor.WithStaticMethod("fill", fill),
			accessor.WithStaticMethod("getName", getName),
			accessor.WithStaticField("rate", &rate),
			accessor.WithProperty("item", (*Box).item, (*Box).setItem),
			accessor.WithProperty("size", (*Box).size, nil),
			accessor.WithStaticProperty("defaultLabel",
				func() string { return defaultLabel },
				func(v string) { defaultLabel = v }),
		},
	},
	{
		typ: typeOf[SubBox](),
		members: []accessor.MemberOption{
			accessor.WithMethod("echo", (*SubBox).echo),
			accessor.WithMethod("doubled", (*SubBox).doubled),
		},
	},
	{
		typ: typeOf[Record](),
		members: []accessor.MemberOption{
			accessor.WithConstructor(newRecord),
			accessor.WithConstructor(newDefaultRecord),
			accessor.WithConstructor(newCountedRecord),
		},
	},
	{
		typ: typeOf[Pair](),
		members: []accessor.MemberOption{
			accessor.WithConstructor(newPairString),
			accessor.WithConstructor(newPairInt),
		},
	},
	{
		typ: typeOf[Static](),
		members: []accessor.MemberOption{
			accessor.WithStaticField("setField", &setField),
			accessor.WithStaticField("getField", &getField),
			accessor.WithStaticMethod("invokeWithReturn", invokeWithReturn),
			accessor.WithStaticMethod("invokeWithReturn", invokeWithReturnArg),
			accessor.WithStaticMethod("invokeVoid", invokeVoid),
		},
	},
	{
		typ: typeOf[Holder[*Node]](),
		members: []accessor.MemberOption{
			accessor.WithStaticField("current", &current),
		},
	},
}

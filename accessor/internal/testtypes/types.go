// Package testtypes contains types with unexported members used by the
// accessor tests. Registering them here, inside the declaring package, is the
// only way to reach their unexported methods.
package testtypes

import (
	"errors"
	"fmt"
	"time"
)

const (
	TouchDefault       = "default touch value"
	AmbiguousString    = "parameter is string"
	AmbiguousInt       = "parameter is int"
	CountDefault       = 2
	RateDefault        = 20.0
	StaticGetDefault   = "static get value"
	StaticReturnValue  = "static return value"
	Name               = "Aaron"
	ConstructorDefault = "parameterless"
	Measured           = "measured"
)

type Box struct {
	TouchValue        string
	ReturnsVoidCalled bool

	count int
	stamp time.Time
	items map[string]int
}

func NewBox() *Box { return &Box{count: CountDefault, items: map[string]int{}} }

func (b *Box) Count() int       { return b.count }
func (b *Box) Stamp() time.Time { return b.stamp }

func (b *Box) touch(v string) string {
	b.TouchValue = v
	return v
}

func (b *Box) touchDefault() string {
	b.TouchValue = TouchDefault
	return TouchDefault
}

func (b *Box) ambiguousString(string) string { return AmbiguousString }
func (b *Box) ambiguousInt(int) string       { return AmbiguousInt }

func (b *Box) returnsVoid() { b.ReturnsVoidCalled = true }

func (b *Box) fail(msg string) error { return errors.New(msg) }

func (b *Box) explode() { panic("boom") }

func (b Box) doubled() int { return b.count * 2 }

func (b *Box) describe(s fmt.Stringer) string { return "box " + s.String() }

// Same parameters, different results
func (b *Box) measure() string { return Measured }
func (b *Box) measureInt() int { return b.count }

func (b *Box) item(key string) int { return b.items[key] }

func (b *Box) setItem(key string, v int) { b.items[key] = v }

func (b *Box) size() int { return len(b.items) }

var rate = RateDefault

func Rate() float64 { return rate }

var filled string

func Filled() string { return filled }

func fill(v string) { filled = v }

func getName() string { return Name }

var defaultLabel = "none"

func DefaultLabel() string { return defaultLabel }

type Label string

func (l Label) String() string { return string(l) }

// SubBox embeds Box, standing in for a subclass.
type SubBox struct {
	Box
	extra string
}

func (s *SubBox) echo(b *Box) *Box { return b }

// Hides Box.doubled
func (s *SubBox) doubled() int { return -1 }

type Record struct {
	Data string
	n    int
}

func newRecord(data string) *Record { return &Record{Data: data} }

func newDefaultRecord() *Record { return newRecord(ConstructorDefault) }

func newCountedRecord(data string, n int) (Record, error) {
	if n < 0 {
		return Record{}, fmt.Errorf("negative count %v", n)
	}
	return Record{Data: data, n: n}, nil
}

func (r Record) N() int { return r.n }

type Pair struct {
	Left string
}

func newPairString(s string) *Pair { return &Pair{Left: s} }
func newPairInt(i int) *Pair       { return &Pair{Left: fmt.Sprint(i)} }

// Static has no state of its own, only package-level members registered on
// it.
type Static struct{}

var (
	setField string
	getField = StaticGetDefault
)

func StaticSetField() string { return setField }

var invokeVoidCalled bool

func InvokeVoidCalled() bool { return invokeVoidCalled }

func invokeWithReturn() string            { return StaticReturnValue }
func invokeWithReturnArg(v string) string { return v }
func invokeVoid()                         { invokeVoidCalled = true }

type Holder[T any] struct {
	value T
}

func (h *Holder[T]) Value() T { return h.value }

// Node embeds a holder of itself.
type Node struct {
	Holder[*Node]
	name string
}

var current *Node

func Current() *Node { return current }

// Package models defines the ledger state persisted by the matching core.
package models

import "fmt"

// Unsigned lists the cleartext widths criteria bounds are expressed in.
type Unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

// Bound is a criteria value that is either unconstrained (Any) or a concrete
// value. A set bound of 0 is representable; the wire convention of 0 meaning
// Any is applied only by FromRaw and Raw.
type Bound[T Unsigned] struct {
	value T
	set   bool
}

// Any returns an unconstrained bound.
func Any[T Unsigned]() Bound[T] { return Bound[T]{} }

// Value returns a bound fixed at v.
func Value[T Unsigned](v T) Bound[T] { return Bound[T]{value: v, set: true} }

// FromRaw applies the 0-means-any convention.
func FromRaw[T Unsigned](v T) Bound[T] {
	if v == 0 {
		return Any[T]()
	}
	return Value(v)
}

// Get returns the value and whether the bound is set.
func (b Bound[T]) Get() (T, bool) { return b.value, b.set }

func (b Bound[T]) IsAny() bool { return !b.set }

// Raw renders the bound in the 0-means-any convention.
func (b Bound[T]) Raw() T {
	if !b.set {
		return 0
	}
	return b.value
}

func (b Bound[T]) String() string {
	if !b.set {
		return "any"
	}
	return fmt.Sprint(b.value)
}

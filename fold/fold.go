// Package fold aggregates a sequence of per-element summaries into one value.
//
// A Monoid supplies the starting value and the combine rule. Combination is
// applied strictly left to right, so an Accumulator's running value can double
// as an ordinal (the value before an element is added tells how many similar
// elements came before it).
package fold

// Monoid describes a summary type T with an identity and an associative
// combine rule.
type Monoid[T any] interface {
	Zero() T
	Combine(acc *T, elem T)
}

// Fold combines elems in order, starting from m.Zero().
func Fold[T any](m Monoid[T], elems ...T) T {
	acc := m.Zero()
	for _, e := range elems {
		m.Combine(&acc, e)
	}
	return acc
}

// Accumulator is an incremental Fold for elements that arrive one at a time.
type Accumulator[T any] struct {
	m     Monoid[T]
	value T
	count int
}

// NewAccumulator starts an accumulator at m.Zero().
func NewAccumulator[T any](m Monoid[T]) Accumulator[T] {
	return Accumulator[T]{m: m, value: m.Zero()}
}

// Add combines elem into the running value.
func (a *Accumulator[T]) Add(elem T) {
	a.m.Combine(&a.value, elem)
	a.count++
}

// Value returns the running value.
func (a *Accumulator[T]) Value() T { return a.value }

// Count is the number of elements added since the last Reset.
func (a *Accumulator[T]) Count() int { return a.count }

// Reset returns the accumulator to the identity.
func (a *Accumulator[T]) Reset() {
	a.value = a.m.Zero()
	a.count = 0
}

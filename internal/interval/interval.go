// Package interval implements the closed-interval algebra (C1) the rest of
// the engine builds on: widen, intersect, shift, contains, merge.
//
// Grounded on original_source/include/interval.hpp.
package interval

import "fmt"

// Interval is a closed numeric interval [Lo, Hi] with Lo <= Hi.
type Interval struct {
	Lo int64 `yaml:"lo" json:"lo"`
	Hi int64 `yaml:"hi" json:"hi"`
}

// New returns the interval [lo,hi], normalizing the order of its bounds so
// the invariant Lo <= Hi always holds, matching the source constructor.
func New(a, b int64) Interval {
	if a <= b {
		return Interval{Lo: a, Hi: b}
	}
	return Interval{Lo: b, Hi: a}
}

// Point returns the degenerate interval [p,p].
func Point(p int64) Interval {
	return Interval{Lo: p, Hi: p}
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Lo, iv.Hi)
}

// Length returns Hi - Lo.
func (iv Interval) Length() int64 {
	return iv.Hi - iv.Lo
}

// Contains reports whether point falls within the interval, inclusive on
// both ends.
func (iv Interval) Contains(point int64) bool {
	return iv.Lo <= point && point <= iv.Hi
}

// ContainsInterval reports whether other lies entirely within iv.
func (iv Interval) ContainsInterval(other Interval) bool {
	return iv.Lo <= other.Lo && other.Hi <= iv.Hi
}

// Disjoint reports whether a and b share no point.
func Disjoint(a, b Interval) bool {
	return a.Hi < b.Lo || b.Hi < a.Lo
}

// Intersects is the negation of Disjoint.
func Intersects(a, b Interval) bool {
	return !Disjoint(a, b)
}

// Widen returns the convex hull of a and b: the smallest interval containing
// both.
func Widen(a, b Interval) Interval {
	lo := a.Lo
	if b.Lo < lo {
		lo = b.Lo
	}
	hi := a.Hi
	if b.Hi > hi {
		hi = b.Hi
	}
	return Interval{Lo: lo, Hi: hi}
}

// WidenInto widens iv in place to also cover other, mirroring the source's
// mutating widen(other) member function. Used where a state merge must
// mutate an existing entry rather than allocate a fresh one.
func (iv *Interval) WidenInto(other Interval) {
	*iv = Widen(*iv, other)
}

// Add returns element-wise interval addition: [a.Lo+b.Lo, a.Hi+b.Hi].
func Add(a, b Interval) Interval {
	return Interval{Lo: a.Lo + b.Lo, Hi: a.Hi + b.Hi}
}

// Shift returns the interval translated by k: [a.Lo+k, a.Hi+k].
func Shift(a Interval, k int64) Interval {
	return Interval{Lo: a.Lo + k, Hi: a.Hi + k}
}

// Merge is an alias for Widen kept for readability at call sites that mean
// "fold these two observations together" rather than "compute a hull".
func Merge(a, b Interval) Interval {
	return Widen(a, b)
}

// Equal reports whether a and b have identical bounds.
func Equal(a, b Interval) bool {
	return a.Lo == b.Lo && a.Hi == b.Hi
}

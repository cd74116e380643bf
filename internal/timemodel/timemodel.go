// Package timemodel fixes the discrete time representation shared by every
// other package in the engine, grounded on original_source/include/time.hpp.
package timemodel

import "math"

// Time is the discrete instant/duration type used throughout the engine.
// The source supports both a discrete (integer) and dense (floating point)
// time model; this rewrite standardizes on the discrete model, which is the
// one every scenario in the specification exercises.
type Time = int64

// Infinity is a sentinel larger than any time value that occurs in practice.
const Infinity Time = math.MaxInt64

// Epsilon is the smallest representable time step in the discrete model.
// It is subtracted from a deadline to build a job's scheduling window.
const Epsilon Time = 1

// DeadlineMissTolerance is the slack allowed before a completion past a
// deadline is treated as an actual miss. Zero in the discrete model.
const DeadlineMissTolerance Time = 0

// ExceedsDeadline reports whether completing at t counts as a deadline miss
// given deadline d, honoring DeadlineMissTolerance.
func ExceedsDeadline(t, deadline Time) bool {
	return t > deadline && (t-deadline) > DeadlineMissTolerance
}

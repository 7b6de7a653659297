package core

import (
	"fmt"
	"math"
)

// Tolerance is a mass tolerance in Da or ppm.
//
// ppm tolerances are converted relative to the query value, never the
// candidate value.
type Tolerance struct {
	Value float64
	PPM   bool
	// Floor is a minimum absolute tolerance in Da, used to widen fragment
	// matching in open search.
	Floor float64
}

// Da returns an absolute tolerance.
func Da(v float64) Tolerance { return Tolerance{Value: v} }

// PPM returns a relative tolerance.
func PPM(v float64) Tolerance { return Tolerance{Value: v, PPM: true} }

// At returns the absolute tolerance in Da at mass q.
func (t Tolerance) At(q float64) float64 {
	tol := t.Value
	if t.PPM {
		tol = q * t.Value * 1e-6
	}
	return math.Max(tol, t.Floor)
}

// Widen returns a copy whose absolute tolerance is never below floor.
func (t Tolerance) Widen(floor float64) Tolerance {
	t.Floor = math.Max(t.Floor, floor)
	return t
}

// Validate rejects negative or non-finite tolerances.
func (t Tolerance) Validate() error {
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value < 0 {
		return fmt.Errorf("tolerance %v must be a non-negative number", t.Value)
	}
	if math.IsNaN(t.Floor) || t.Floor < 0 {
		return fmt.Errorf("tolerance floor %v must be non-negative", t.Floor)
	}
	return nil
}

func (t Tolerance) String() string {
	if t.PPM {
		return fmt.Sprintf("%g ppm", t.Value)
	}
	return fmt.Sprintf("%g Da", t.Value)
}

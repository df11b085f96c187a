package nlp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonFinite is returned when a callback produces NaN or Inf.
	ErrNonFinite = errors.New("non-finite value")

	// ErrNoObjective is returned by Solve when no objective is registered.
	ErrNoObjective = errors.New("objective not set")
)

// ObjectiveFunc returns f(x) and, when grad is non-nil, adds ∇f(x) into grad.
// The solver zeroes grad before each call.
type ObjectiveFunc func(x, grad []float64) float64

// ConstraintFunc writes c(x) into c, one value per equality constraint.
type ConstraintFunc func(x, c []float64)

// JacobianFunc writes the constraint gradients at x into jac.
type JacobianFunc func(x []float64, jac *Jacobian)

// Problem describes the size, bounds and starting point of a program.
type Problem struct {
	// N is the number of variables.
	N int

	// M is the number of equality constraints.
	M int

	// Lower and Upper are per-variable bounds. Nil means unbounded; use
	// math.Inf for individual unbounded sides.
	Lower []float64
	Upper []float64

	// X0 is the initial guess. Nil means all zeros.
	X0 []float64
}

func (p Problem) validate() error {
	if p.N <= 0 {
		return fmt.Errorf("variable count must be positive, got %d", p.N)
	}
	if p.M < 0 {
		return fmt.Errorf("constraint count must be non-negative, got %d", p.M)
	}
	if p.Lower != nil && len(p.Lower) != p.N {
		return fmt.Errorf("lower bounds: got %d values for %d variables", len(p.Lower), p.N)
	}
	if p.Upper != nil && len(p.Upper) != p.N {
		return fmt.Errorf("upper bounds: got %d values for %d variables", len(p.Upper), p.N)
	}
	if p.X0 != nil && len(p.X0) != p.N {
		return fmt.Errorf("initial guess: got %d values for %d variables", len(p.X0), p.N)
	}
	for i := 0; i < p.N; i++ {
		lo, hi := p.bound(i)
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
			return fmt.Errorf("variable %d has invalid bounds [%g, %g]", i, lo, hi)
		}
	}
	return nil
}

func (p Problem) bound(i int) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if p.Lower != nil {
		lo = p.Lower[i]
	}
	if p.Upper != nil {
		hi = p.Upper[i]
	}
	return lo, hi
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

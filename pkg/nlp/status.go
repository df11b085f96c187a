package nlp

// Reason reports why a solve stopped.
type Reason int

const (
	// Continue means the solve has not terminated.
	Continue Reason = iota

	// ConvergedTolerance means both the Lagrangian gradient norm and the
	// constraint violation dropped below their tolerances.
	ConvergedTolerance

	// DivergedMaxIterations means the outer iteration cap was reached. The
	// current point is still usable.
	DivergedMaxIterations

	// DivergedUser means a convergence test stopped the solve for its own reasons.
	DivergedUser
)

func (r Reason) String() string {
	switch r {
	case Continue:
		return "continue"
	case ConvergedTolerance:
		return "converged_tolerance"
	case DivergedMaxIterations:
		return "diverged_max_iterations"
	case DivergedUser:
		return "diverged_user"
	default:
		return "unknown"
	}
}

// Converged reports whether r is a converged reason.
func (r Reason) Converged() bool { return r == ConvergedTolerance }

// Status is the solver state handed to the convergence test once per outer
// iteration.
type Status struct {
	// Iteration is the outer iteration number, starting at 0 for every Solve.
	Iteration int

	// Objective is f at the current point.
	Objective float64

	// LagrangianGradientNorm is the 2-norm of the projected gradient of the
	// augmented Lagrangian at the current point.
	LagrangianGradientNorm float64

	// ConstraintViolation is max_j |c_j| at the current point.
	ConstraintViolation float64

	GradientTolerance   float64
	ConstraintTolerance float64
	MaxIterations       int

	// Penalty is the penalty factor the next inner solve will use.
	Penalty float64

	// InnerIterations and Evaluations accumulate over the current Solve.
	InnerIterations int
	Evaluations     int
}

// ToleranceTest is the default convergence test: stop at the iteration cap,
// or when both the Lagrangian gradient norm and the constraint violation are
// below their tolerances.
func ToleranceTest(st Status) Reason {
	if st.Iteration >= st.MaxIterations {
		return DivergedMaxIterations
	}
	if st.LagrangianGradientNorm < st.GradientTolerance && st.ConstraintViolation < st.ConstraintTolerance {
		return ConvergedTolerance
	}
	return Continue
}

// ConvergenceTest decides, once per outer iteration, whether to stop.
type ConvergenceTest func(m *Monitor) Reason

// Monitor gives a convergence test access to the running solver. It is only
// valid for the duration of the callback.
type Monitor struct {
	s *Solver
}

// Status returns the current iteration status.
func (m *Monitor) Status() Status { return m.s.status }

// Penalty returns the penalty factor the next inner solve will use.
func (m *Monitor) Penalty() float64 { return m.s.mu }

// SetPenalty overrides the penalty factor. Zero disables the constraints for
// the next inner solve.
func (m *Monitor) SetPenalty(mu float64) {
	if mu < 0 {
		mu = 0
	}
	m.s.mu = mu
}

// PenaltyGrowth returns the factor the penalty grows by after an inner solve
// that did not reduce the constraint violation enough.
func (m *Monitor) PenaltyGrowth() float64 { return m.s.growth }

// SetPenaltyGrowth overrides the penalty growth factor.
func (m *Monitor) SetPenaltyGrowth(f float64) {
	if f > 1 {
		m.s.growth = f
	}
}

// Variables returns the live primal vector. Writes are visible to the next
// inner solve. The slice must not be retained after the callback returns.
func (m *Monitor) Variables() []float64 { return m.s.x }

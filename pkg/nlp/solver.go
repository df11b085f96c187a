package nlp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Solver runs the augmented Lagrangian method. It is not safe for concurrent
// use; callbacks are invoked sequentially from the goroutine calling Solve.
type Solver struct {
	problem  Problem
	settings Settings
	bounds   *transform

	objective   ObjectiveFunc
	constraints ConstraintFunc
	jacobian    JacobianFunc
	test        ConvergenceTest

	x      []float64 // primal variables (external space)
	lambda []float64 // Lagrange multipliers
	mu     float64   // penalty factor
	growth float64   // penalty growth factor

	// Feasibility target for accepting a multiplier update and the inner
	// gradient threshold, both tightened as the method progresses.
	etaTol   float64
	innerTol float64

	status Status
	reason Reason

	// Scratch buffers for evaluations.
	grad []float64
	c    []float64
	w    []float64
	jac  *Jacobian
}

// New validates the problem and allocates the solver state. The initial
// point is projected into the bounds.
func New(p Problem, s Settings) (*Solver, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	s = s.withDefaults(p.N)

	solver := &Solver{
		problem:  p,
		settings: s,
		bounds:   newTransform(p),
		x:        make([]float64, p.N),
		lambda:   make([]float64, p.M),
		growth:   s.PenaltyGrowth,
		grad:     make([]float64, p.N),
		c:        make([]float64, p.M),
		w:        make([]float64, p.M),
		jac:      NewJacobian(p.M, p.N),
	}
	if p.X0 != nil {
		if !allFinite(p.X0) {
			return nil, fmt.Errorf("invalid problem: initial guess: %w", ErrNonFinite)
		}
		copy(solver.x, p.X0)
	}
	solver.bounds.project(solver.x)
	return solver, nil
}

// SetObjective registers the objective callback.
func (s *Solver) SetObjective(f ObjectiveFunc) { s.objective = f }

// SetConstraints registers the constraint value and Jacobian callbacks.
func (s *Solver) SetConstraints(c ConstraintFunc, j JacobianFunc) {
	s.constraints = c
	s.jacobian = j
}

// SetConvergenceTest replaces [ToleranceTest] as the per-iteration test.
func (s *Solver) SetConvergenceTest(t ConvergenceTest) { s.test = t }

// Solution returns the live primal vector.
func (s *Solver) Solution() []float64 { return s.x }

// Multipliers returns the live Lagrange multiplier vector. Scaling it between
// solves warm-starts the next Solve from a relaxed multiplier state.
func (s *Solver) Multipliers() []float64 { return s.lambda }

// Reason returns why the last Solve stopped.
func (s *Solver) Reason() Reason { return s.reason }

// Status returns the status of the last evaluated iteration.
func (s *Solver) Status() Status { return s.status }

// Settings returns the effective settings.
func (s *Solver) Settings() Settings { return s.settings }

// Solve runs outer iterations from the current primal point and multipliers
// until the convergence test returns a reason other than [Continue].
//
// Every Solve restarts the iteration counter and the penalty schedule; the
// primal point and the multipliers carry over from the previous Solve.
func (s *Solver) Solve(ctx context.Context) error {
	if s.objective == nil {
		return ErrNoObjective
	}
	if s.problem.M > 0 && (s.constraints == nil || s.jacobian == nil) {
		return fmt.Errorf("%d constraints declared but callbacks not set", s.problem.M)
	}

	s.reason = Continue
	s.mu = s.settings.InitialPenalty
	s.growth = s.settings.PenaltyGrowth
	s.etaTol = math.Max(0.1, s.settings.ConstraintTolerance)
	s.innerTol = math.Max(1, s.settings.GradientTolerance)
	if s.problem.M == 0 {
		// Without constraints a single inner solve is the whole problem.
		s.innerTol = s.settings.GradientTolerance / 10
	}
	s.status = Status{}

	if err := s.evaluate(0); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.status.Penalty = s.mu
		reason := s.runTest()
		s.settings.Logger.Debug("outer iteration",
			"iter", s.status.Iteration,
			"f", s.status.Objective,
			"lgrad", s.status.LagrangianGradientNorm,
			"cviol", s.status.ConstraintViolation,
			"mu", s.mu,
			"reason", reason)
		if reason != Continue {
			s.reason = reason
			return nil
		}

		inner, evals, err := s.subsolve()
		if err != nil {
			return fmt.Errorf("outer iteration %d: %w", s.status.Iteration, err)
		}
		next := s.status.Iteration + 1
		innerTotal := s.status.InnerIterations + inner
		evalTotal := s.status.Evaluations + evals
		if err := s.evaluate(next); err != nil {
			return err
		}
		s.status.InnerIterations = innerTotal
		s.status.Evaluations = evalTotal
		s.update()
	}
}

func (s *Solver) runTest() Reason {
	s.status.GradientTolerance = s.settings.GradientTolerance
	s.status.ConstraintTolerance = s.settings.ConstraintTolerance
	s.status.MaxIterations = s.settings.MaxIterations
	if s.test == nil {
		return ToleranceTest(s.status)
	}
	return s.test(&Monitor{s: s})
}

// evaluate refreshes the status at the current point. The Lagrangian
// gradient uses the first-order multiplier estimate λ - μc.
func (s *Solver) evaluate(iteration int) error {
	f, err := s.lagrangian(s.x, s.grad)
	if err != nil {
		return err
	}
	s.bounds.projectGradient(s.x, s.grad)

	violation := 0.0
	for _, v := range s.c {
		violation = math.Max(violation, math.Abs(v))
	}
	s.status = Status{
		Iteration:              iteration,
		Objective:              f,
		LagrangianGradientNorm: floats.Norm(s.grad, 2),
		ConstraintViolation:    violation,
	}
	return nil
}

// lagrangian evaluates the objective and constraints at x, leaving c(x) in
// s.c and ∇L(x) in grad. It returns the objective value f(x).
func (s *Solver) lagrangian(x, grad []float64) (float64, error) {
	for i := range grad {
		grad[i] = 0
	}
	f := s.objective(x, grad)
	if s.problem.M > 0 {
		s.constraints(x, s.c)
		s.jac.Reset()
		s.jacobian(x, s.jac)
		for j, cj := range s.c {
			s.w[j] = s.mu*cj - s.lambda[j]
		}
		s.jac.MulTransAdd(s.w, grad)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || !allFinite(s.c) || !allFinite(grad) {
		return f, ErrNonFinite
	}
	return f, nil
}

// augmentedValue returns L(x; λ, μ) given f(x) and the constraint values in s.c.
func (s *Solver) augmentedValue(f float64) float64 {
	for j, cj := range s.c {
		f += -s.lambda[j]*cj + s.mu/2*cj*cj
	}
	return f
}

// subsolve minimises the augmented Lagrangian with L-BFGS over the internal
// variables and stores the result in s.x.
func (s *Solver) subsolve() (iterations, evaluations int, err error) {
	n := s.problem.N
	z0 := make([]float64, n)
	s.bounds.toInternal(s.x, z0)

	cache := &evalCache{
		solver: s,
		x:      make([]float64, n),
		gradZ:  make([]float64, n),
	}
	p := optimize.Problem{
		Func: cache.value,
		Grad: cache.gradient,
	}
	settings := &optimize.Settings{
		GradientThreshold: math.Max(s.innerTol, s.settings.GradientTolerance/10),
		MajorIterations:   s.settings.SubsolverMaxIterations,
		FuncEvaluations:   s.settings.SubsolverMaxEvaluations,
	}

	result, err := optimize.Minimize(p, z0, settings, &optimize.LBFGS{})
	if cache.err != nil {
		return 0, cache.evals, cache.err
	}
	if result == nil {
		return 0, cache.evals, fmt.Errorf("inner solve: %w", err)
	}
	if !allFinite(result.X) || math.IsNaN(result.F) {
		return result.MajorIterations, cache.evals, fmt.Errorf("inner solve: %w", ErrNonFinite)
	}
	if err != nil {
		// Line search breakdowns still leave the best point found; keep it.
		s.settings.Logger.Debug("inner solve stopped early", "status", result.Status, "err", err)
	}
	s.bounds.toExternal(result.X, s.x)
	return result.MajorIterations, cache.evals, nil
}

// update applies the multiplier or penalty step after an inner solve.
func (s *Solver) update() {
	if s.mu == 0 || s.problem.M == 0 {
		return
	}
	violation := s.status.ConstraintViolation
	if violation <= s.etaTol {
		for j, cj := range s.c {
			s.lambda[j] -= s.mu * cj
		}
		shrink := math.Max(s.mu, 2)
		s.etaTol = math.Max(s.etaTol/math.Pow(shrink, 0.9), s.settings.ConstraintTolerance)
		s.innerTol = math.Max(s.innerTol/shrink, s.settings.GradientTolerance/10)
		return
	}
	s.mu = math.Min(s.mu*s.growth, s.settings.MaxPenalty)
	s.etaTol = math.Max(0.1/math.Pow(s.mu, 0.1), s.settings.ConstraintTolerance)
	s.innerTol = math.Max(1/s.mu, s.settings.GradientTolerance/10)
}

// evalCache shares one augmented Lagrangian evaluation between the value and
// gradient callbacks gonum issues for the same point.
type evalCache struct {
	solver *Solver
	x      []float64
	lastZ  []float64
	fval   float64
	gradZ  []float64
	evals  int
	err    error
}

func (e *evalCache) ensure(z []float64) {
	if e.lastZ != nil && floats.Equal(e.lastZ, z) {
		return
	}
	s := e.solver
	s.bounds.toExternal(z, e.x)
	f, err := s.lagrangian(e.x, e.gradZ)
	e.evals++
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		e.fval = math.NaN()
	} else {
		e.fval = s.augmentedValue(f)
	}
	s.bounds.chain(z, e.gradZ)
	e.lastZ = append(e.lastZ[:0], z...)
}

func (e *evalCache) value(z []float64) float64 {
	e.ensure(z)
	return e.fval
}

func (e *evalCache) gradient(grad, z []float64) {
	e.ensure(z)
	copy(grad, e.gradZ)
}

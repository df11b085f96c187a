// Package nlp solves equality-constrained nonlinear programs with box bounds
// using an augmented Lagrangian method.
//
// # Problem
//
// The solver minimises f(x) subject to c(x) = 0 and lower <= x <= upper.
// Callers supply three callbacks:
//
//   - an [ObjectiveFunc] returning f(x) and adding its gradient into a zeroed buffer
//   - a [ConstraintFunc] filling one value per constraint
//   - a [JacobianFunc] filling one sparse [Row] per constraint
//
// The Jacobian callback is always invoked right after the constraint callback
// with the same x, so implementations may cache rows computed during value
// evaluation and replay them.
//
// # Method
//
// Each outer iteration minimises the augmented Lagrangian
//
//	L(x; λ, μ) = f(x) - Σ λ_j c_j(x) + μ/2 Σ c_j(x)²
//
// with gonum's L-BFGS, then either updates the multipliers (λ_j -= μ c_j) when
// the constraint violation dropped below the current target, or grows the
// penalty μ by the configured factor. Box bounds are enforced exactly by
// optimising over unconstrained internal variables mapped through smooth
// transforms (a sine mapping for two-sided bounds).
//
// # Monitoring
//
// Once per outer iteration, before the next inner solve, the solver calls the
// [ConvergenceTest]. It sees a [Status] snapshot, may adjust the penalty and
// may rewrite the primal variables through the [Monitor]; its returned
// [Reason] decides whether the solve continues.
//
//	s, err := nlp.New(nlp.Problem{N: n, M: m, Lower: lo, Upper: hi}, nlp.DefaultSettings(n))
//	s.SetObjective(objective)
//	s.SetConstraints(values, jacobian)
//	s.SetConvergenceTest(func(mon *nlp.Monitor) nlp.Reason { return nlp.ToleranceTest(mon.Status()) })
//	err = s.Solve(ctx)
package nlp

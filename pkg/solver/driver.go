// Package solver places a dungeon model by minimising corridor length under
// room overlap constraints.
//
// A [Driver] owns one [nlp.Solver] for one model. Solve runs the first pass;
// Rerun decays the multipliers and solves again from the current layout to
// squeeze out residual overlap. After every successful pass the model's
// positions are overwritten with the solution.
//
// The driver installs its own convergence test, which disables the overlap
// penalty for the first outer iteration so the corridors can pull the layout
// together before overlap is enforced, then restores the initial penalty.
package solver

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
)

// Driver runs the layout optimization for one model. It is not safe for
// concurrent use.
type Driver struct {
	model  *model.Model
	opts   Options
	logger *log.Logger

	solver    *nlp.Solver
	objective functions.Objective
	overlap   *functions.RoomOverlap
	rows      *rowCache

	run    int
	solved bool

	// lastGood and lastLambda hold the primal and dual state of the last
	// successful pass. A failed rerun restores both.
	lastGood   []float64
	lastLambda []float64

	// ctx is the context of the running pass, for hooks fired from callbacks.
	ctx context.Context
}

// New builds the optimization problem for m. Initialization failures carry
// [errors.ErrCodeSolverInit].
func New(m *model.Model, opts Options) (*Driver, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	n := m.VariablesCount()
	bounds := m.VariablesBounds()
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i, b := range bounds {
		lower[i], upper[i] = b.Lower, b.Upper
	}

	overlap := functions.NewRoomOverlap(m, opts.RoomBloating)
	s, err := nlp.New(nlp.Problem{
		N:     n,
		M:     overlap.Count(),
		Lower: lower,
		Upper: upper,
	}, opts.Settings)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSolverInit, err, "initialize solver for %d rooms", len(m.Rooms()))
	}

	objective := functions.Sum{functions.NewCorridorLength(m)}
	if opts.PushForce {
		objective = append(objective, functions.NewPushForce(m, opts.PushScale, opts.PushRange, opts.PushMode))
	}

	d := &Driver{
		model:     m,
		opts:      opts,
		logger:    opts.Logger,
		solver:    s,
		objective: objective,
		overlap:   overlap,
		rows:      newRowCache(overlap),
	}
	s.SetObjective(objective.Evaluate)
	if overlap.Count() > 0 {
		s.SetConstraints(d.rows.values, d.rows.jacobian)
	}
	s.SetConvergenceTest(d.convergenceTest)
	return d, nil
}

// Solve runs the first pass. A failure leaves no usable layout and carries
// [errors.ErrCodeSolve]. Stopping at the iteration cap is not a failure; see
// [Driver.Reason].
func (d *Driver) Solve(ctx context.Context) error {
	if err := d.pass(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeSolve, err, "solve run %d", d.run)
	}
	return nil
}

// Rerun divides the multipliers by the configured decay and solves again
// from the current layout under the next run id. On failure it logs, restores
// the layout and multipliers of the last good pass and returns false.
func (d *Driver) Rerun(ctx context.Context) bool {
	if !d.solved {
		d.logger.Warn("rerun requested before a successful solve")
		return false
	}
	for i := range d.solver.Multipliers() {
		d.solver.Multipliers()[i] /= d.opts.MultiplierDecay
	}
	d.run++

	err := d.pass(ctx)
	observability.Solver().OnRerun(ctx, d.run, err == nil)
	if err != nil {
		copy(d.solver.Solution(), d.lastGood)
		copy(d.solver.Multipliers(), d.lastLambda)
		d.logger.Warn("rerun failed", "run", d.run, "err", err)
		return false
	}
	return true
}

func (d *Driver) pass(ctx context.Context) error {
	d.ctx = ctx
	defer func() { d.ctx = nil }()

	start := time.Now()
	if err := d.solver.Solve(ctx); err != nil {
		return err
	}
	x := d.solver.Solution()
	if err := d.model.SetPositions(model.PositionsFromVariables(x)); err != nil {
		return err
	}
	d.lastGood = append(d.lastGood[:0], x...)
	d.lastLambda = append(d.lastLambda[:0], d.solver.Multipliers()...)
	d.solved = true

	st := d.solver.Status()
	d.logger.Info("solve finished",
		"run", d.run,
		"reason", d.solver.Reason(),
		"iterations", st.Iteration,
		"inner", st.InnerIterations,
		"objective", fmt.Sprintf("%.4g", st.Objective),
		"violation", fmt.Sprintf("%.3g", st.ConstraintViolation),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// convergenceTest applies the penalty schedule, runs the modifiers and
// readers, and decides with [nlp.ToleranceTest].
func (d *Driver) convergenceTest(mon *nlp.Monitor) nlp.Reason {
	st := mon.Status()
	settings := d.solver.Settings()
	switch st.Iteration {
	case 0:
		mon.SetPenalty(0)
		mon.SetPenaltyGrowth(settings.PenaltyGrowth)
	case 1:
		mon.SetPenalty(settings.InitialPenalty)
	}

	reason := nlp.ToleranceTest(st)

	if st.Iteration > 0 {
		x := mon.Variables()
		for _, modify := range d.opts.Modifiers {
			modify(x)
		}
		if len(d.opts.Readers) > 0 {
			snapshot := slices.Clone(x)
			for _, read := range d.opts.Readers {
				read(snapshot, d.run, st.Iteration)
			}
		}
	}

	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	observability.Solver().OnOuterIteration(ctx, d.run, st.Iteration, st.Objective, st.ConstraintViolation)
	return reason
}

// RetrieveSolution returns one position per entity id from the last
// successful pass.
func (d *Driver) RetrieveSolution() []model.Position {
	return model.PositionsFromVariables(d.solver.Solution())
}

// Reason returns why the last pass stopped.
func (d *Driver) Reason() nlp.Reason { return d.solver.Reason() }

// Status returns the solver status at the end of the last pass.
func (d *Driver) Status() nlp.Status { return d.solver.Status() }

// RunID returns the id of the current pass: 0 for Solve, then one more per Rerun.
func (d *Driver) RunID() int { return d.run }

// Multipliers returns a copy of the current Lagrange multipliers.
func (d *Driver) Multipliers() []float64 { return slices.Clone(d.solver.Multipliers()) }

// MaxOverlap returns the largest overlap constraint value of the current layout.
func (d *Driver) MaxOverlap() float64 { return d.overlap.Max(d.solver.Solution()) }

// Model returns the model being solved.
func (d *Driver) Model() *model.Model { return d.model }

// rowCache evaluates the overlap constraints and keeps their gradient rows so
// the Jacobian callback replays them instead of recomputing.
type rowCache struct {
	overlap *functions.RoomOverlap
	x       []float64
	rows    []nlp.Row
	valid   bool
}

func newRowCache(o *functions.RoomOverlap) *rowCache {
	return &rowCache{overlap: o, rows: make([]nlp.Row, o.Count())}
}

func (c *rowCache) values(x, out []float64) {
	for i := range out {
		out[i] = c.overlap.Evaluate(i, x, &c.rows[i])
	}
	c.x = append(c.x[:0], x...)
	c.valid = true
}

func (c *rowCache) jacobian(x []float64, jac *nlp.Jacobian) {
	if !c.valid || !floats.Equal(c.x, x) {
		panic("solver: jacobian requested at a point other than the last constraint evaluation")
	}
	for i := range c.rows {
		jac.SetRow(i, &c.rows[i])
	}
}

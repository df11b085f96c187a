package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/K1ngNothing/dungeon-generation/pkg/callbacks"
	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
	"github.com/K1ngNothing/dungeon-generation/pkg/solver"
)

// RunFailed is the reason recorded for a rerun that did not finish. Its
// variables repeat the previous pass.
const RunFailed = "failed"

// Layout is the outcome of the solve stage: one entry per solver pass.
type Layout struct {
	Runs []Run `json:"runs"`
}

// Run describes one solver pass.
type Run struct {
	ID             int       `json:"id"`
	Reason         string    `json:"reason"`
	Iterations     int       `json:"iterations"`
	Objective      float64   `json:"objective"`
	Violation      float64   `json:"violation"`
	MaxOverlap     float64   `json:"max_overlap"`
	CorridorLength float64   `json:"corridor_length"`
	Variables      []float64 `json:"variables"`
}

// Final returns the last pass. It panics on an empty layout.
func (l Layout) Final() Run {
	return l.Runs[len(l.Runs)-1]
}

// Reason returns the stop reason of the first pass, which decides whether
// the layout converged; reruns only polish it.
func (l Layout) Reason() string {
	if len(l.Runs) == 0 {
		return ""
	}
	return l.Runs[0].Reason
}

// Apply writes the final pass into m.
func (l Layout) Apply(m *model.Model) error {
	if len(l.Runs) == 0 {
		return errors.New(errors.ErrCodeInternal, "layout has no runs")
	}
	return l.ApplyRun(m, len(l.Runs)-1)
}

// ApplyRun writes pass run into m.
func (l Layout) ApplyRun(m *model.Model, run int) error {
	if run < 0 || run >= len(l.Runs) {
		return errors.New(errors.ErrCodeInternal, "layout has no run %d", run)
	}
	x := l.Runs[run].Variables
	if len(x) != m.VariablesCount() {
		return errors.New(errors.ErrCodeInvalidModel, "layout has %d variables, model needs %d", len(x), m.VariablesCount())
	}
	return m.SetPositions(model.PositionsFromVariables(x))
}

// MarshalLayout encodes a layout for caching.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.Marshal(l)
}

// UnmarshalLayout decodes a layout written by MarshalLayout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	if len(l.Runs) == 0 {
		return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "layout has no runs")
	}
	return l, nil
}

// Solve places the rooms of m and runs the configured reruns. After it
// returns, m holds the final layout.
//
// The room shaker is installed as a modifier unless disabled; snapshot and
// progress readers are installed when configured. A failed rerun keeps the
// previous layout and is recorded with [RunFailed].
func Solve(ctx context.Context, m *model.Model, opts Options) (Layout, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return Layout{}, err
	}
	logger := opts.Logger

	so := opts.SolverOptions()
	if !opts.NoShake {
		shaker := callbacks.NewRoomShaker(m, random.New(opts.Dungeon.Seed),
			callbacks.WithMaxPasses(opts.ShakerPasses),
			callbacks.WithShakerLogger(logger))
		so.Modifiers = append(so.Modifiers, shaker.Shake)
	}
	var snapshots *callbacks.SnapshotWriter
	if opts.SnapshotDir != "" {
		w, err := callbacks.NewSnapshotWriter(m, opts.SnapshotDir, callbacks.WithSnapshotLogger(logger))
		if err != nil {
			return Layout{}, err
		}
		snapshots = w
		so.Readers = append(so.Readers, w.Read)
	}
	if opts.Progress != nil {
		so.Readers = append(so.Readers, callbacks.NewProgressReporter(m, opts.RoomBloating, opts.Progress).Read)
	}

	d, err := solver.New(m, so)
	if err != nil {
		return Layout{}, err
	}
	corridors := functions.NewCorridorLength(m)

	var layout Layout
	if err := d.Solve(ctx); err != nil {
		return Layout{}, err
	}
	layout.Runs = append(layout.Runs, runOf(d, corridors, true))

	for i := 0; i < opts.Reruns; i++ {
		ok := d.Rerun(ctx)
		if err := ctx.Err(); err != nil {
			return Layout{}, errors.Wrap(errors.ErrCodeSolve, err, "rerun %d", d.RunID())
		}
		layout.Runs = append(layout.Runs, runOf(d, corridors, ok))
	}

	if snapshots != nil {
		if err := snapshots.Err(); err != nil {
			logger.Warn("writing snapshots failed", "dir", opts.SnapshotDir, "err", err)
		} else {
			logger.Debug("wrote snapshots", "count", snapshots.Written(), "dir", opts.SnapshotDir)
		}
	}
	return layout, nil
}

func runOf(d *solver.Driver, corridors *functions.CorridorLength, ok bool) Run {
	x, placed := d.Model().Variables()
	if !placed {
		panic(fmt.Sprintf("pipeline: model unplaced after run %d", d.RunID()))
	}
	st := d.Status()
	run := Run{
		ID:             d.RunID(),
		Reason:         d.Reason().String(),
		Iterations:     st.Iteration,
		Objective:      st.Objective,
		Violation:      st.ConstraintViolation,
		MaxOverlap:     d.MaxOverlap(),
		CorridorLength: corridors.Evaluate(x, nil),
		Variables:      x,
	}
	if !ok {
		run.Reason = RunFailed
	}
	return run
}

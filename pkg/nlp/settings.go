package nlp

import (
	"io"

	"github.com/charmbracelet/log"
)

// Default solver parameters.
const (
	DefaultMaxIterations       = 25
	DefaultGradientTolerance   = 1e-3
	DefaultConstraintTolerance = 1e-3
	DefaultInitialPenalty      = 1.0
	DefaultPenaltyGrowth       = 25.0
	DefaultMaxPenalty          = 1e12
)

// Settings tunes the augmented Lagrangian loop and its inner solver.
type Settings struct {
	// MaxIterations caps the outer iterations of one Solve.
	MaxIterations int

	// SubsolverMaxIterations caps L-BFGS iterations per inner solve.
	SubsolverMaxIterations int

	// SubsolverMaxEvaluations caps function evaluations per inner solve.
	SubsolverMaxEvaluations int

	// GradientTolerance and ConstraintTolerance are the stationarity and
	// feasibility targets. They are independent.
	GradientTolerance   float64
	ConstraintTolerance float64

	// InitialPenalty is the penalty factor at the start of every Solve.
	InitialPenalty float64

	// PenaltyGrowth multiplies the penalty when feasibility stalls.
	PenaltyGrowth float64

	// MaxPenalty caps the penalty factor.
	MaxPenalty float64

	// Logger receives per-iteration debug output. Nil discards it.
	Logger *log.Logger
}

// DefaultSettings returns the defaults for a problem with n variables:
// 25 outer iterations, 10n inner iterations and 100n evaluations per inner solve.
func DefaultSettings(n int) Settings {
	return Settings{
		MaxIterations:           DefaultMaxIterations,
		SubsolverMaxIterations:  10 * n,
		SubsolverMaxEvaluations: 100 * n,
		GradientTolerance:       DefaultGradientTolerance,
		ConstraintTolerance:     DefaultConstraintTolerance,
		InitialPenalty:          DefaultInitialPenalty,
		PenaltyGrowth:           DefaultPenaltyGrowth,
		MaxPenalty:              DefaultMaxPenalty,
	}
}

// withDefaults fills zero fields from DefaultSettings(n).
func (s Settings) withDefaults(n int) Settings {
	d := DefaultSettings(n)
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.SubsolverMaxIterations <= 0 {
		s.SubsolverMaxIterations = d.SubsolverMaxIterations
	}
	if s.SubsolverMaxEvaluations <= 0 {
		s.SubsolverMaxEvaluations = 10 * s.SubsolverMaxIterations
	}
	if s.GradientTolerance <= 0 {
		s.GradientTolerance = d.GradientTolerance
	}
	if s.ConstraintTolerance <= 0 {
		s.ConstraintTolerance = d.ConstraintTolerance
	}
	if s.InitialPenalty <= 0 {
		s.InitialPenalty = d.InitialPenalty
	}
	if s.PenaltyGrowth <= 1 {
		s.PenaltyGrowth = d.PenaltyGrowth
	}
	if s.MaxPenalty <= 0 {
		s.MaxPenalty = d.MaxPenalty
	}
	if s.Logger == nil {
		s.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return s
}

package solver

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
)

// DefaultMultiplierDecay divides the Lagrange multipliers before a rerun.
const DefaultMultiplierDecay = 1000.0

// Modifier may rewrite any entry of the variable vector between outer
// iterations. It must not retain x.
type Modifier func(x []float64)

// Reader observes the variable vector after the modifiers of an outer
// iteration ran. x is a private copy.
type Reader func(x []float64, run, iteration int)

// Options configures a [Driver].
type Options struct {
	// Settings tunes the augmented Lagrangian solver. Zero fields take the
	// nlp defaults for the model's variable count.
	Settings nlp.Settings

	// RoomBloating multiplies room half-extents in the overlap constraint.
	RoomBloating float64

	// PushForce adds the push force objective with the parameters below.
	PushForce bool
	PushScale float64
	PushRange float64
	PushMode  functions.PushMode

	// MultiplierDecay divides the multipliers before each rerun.
	MultiplierDecay float64

	// Modifiers run before Readers, in order, once per outer iteration after
	// the first.
	Modifiers []Modifier
	Readers   []Reader

	Logger *log.Logger
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.RoomBloating == 0 {
		o.RoomBloating = functions.DefaultRoomBloating
	}
	if o.PushScale == 0 {
		o.PushScale = functions.DefaultPushScale
	}
	if o.PushRange == 0 {
		o.PushRange = functions.DefaultPushRange
	}
	if o.MultiplierDecay == 0 {
		o.MultiplierDecay = DefaultMultiplierDecay
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Settings.Logger == nil {
		o.Settings.Logger = o.Logger
	}
}

// Validate checks the options after SetDefaults.
func (o *Options) Validate() error {
	if o.RoomBloating <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "room bloating must be positive, got %g", o.RoomBloating)
	}
	if o.PushForce && (o.PushScale <= 0 || o.PushRange <= 0) {
		return errors.New(errors.ErrCodeInvalidSettings, "push force scale and range must be positive, got %g and %g", o.PushScale, o.PushRange)
	}
	if o.MultiplierDecay < 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "multiplier decay must be at least 1, got %g", o.MultiplierDecay)
	}
	s := o.Settings
	if s.MaxIterations < 0 || s.SubsolverMaxIterations < 0 || s.SubsolverMaxEvaluations < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "iteration limits must not be negative")
	}
	if s.GradientTolerance < 0 || s.ConstraintTolerance < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "tolerances must not be negative")
	}
	return nil
}

// Package pipeline provides the dungeon generation pipeline shared by the CLI
// and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Generate: Build a random dungeon model from generator settings
//  2. Solve: Place the rooms by constrained optimization, with optional reruns
//  3. Render: Produce SVG, PDF, PNG, JSON and topology outputs
//
// Every stage is cached: the model under its settings, the layout under the
// model hash and solver options, and each artifact under the layout hash and
// render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dungeon: generator.Settings{RoomCount: 30, Seed: 7},
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	m, err := runner.Generate(ctx, opts)
//	layout, err := runner.Solve(ctx, m, opts)
//	artifacts, err := runner.Render(ctx, m, layout, opts)
package pipeline

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/K1ngNothing/dungeon-generation/pkg/cache"
	"github.com/K1ngNothing/dungeon-generation/pkg/callbacks"
	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/generator"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
	"github.com/K1ngNothing/dungeon-generation/pkg/solver"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultReruns is the number of extra solver passes after the first.
	DefaultReruns = 0

	// MaxReruns bounds reruns requested through the API.
	MaxReruns = 10

	// DefaultHubColor highlights the hub room in SVG output.
	DefaultHubColor = "orange"

	// DefaultPNGScale is the PNG scale factor.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatTopology = "topology"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatTopology: true,
}

// ValidPushModes is the set of supported push force modes.
var ValidPushModes = map[string]bool{
	functions.PushDisconnected.String(): true,
	functions.PushAllPairs.String():     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON, TOML and YAML serialization for API requests
// and configuration files.
type Options struct {
	// Generate options
	Dungeon generator.Settings `json:"dungeon" toml:"dungeon" yaml:"dungeon"`

	// Solve options
	MaxIterations       int     `json:"max_iterations,omitempty" toml:"max_iterations" yaml:"max_iterations"`
	GradientTolerance   float64 `json:"gradient_tolerance,omitempty" toml:"gradient_tolerance" yaml:"gradient_tolerance"`
	ConstraintTolerance float64 `json:"constraint_tolerance,omitempty" toml:"constraint_tolerance" yaml:"constraint_tolerance"`
	InitialPenalty      float64 `json:"initial_penalty,omitempty" toml:"initial_penalty" yaml:"initial_penalty"`
	PenaltyGrowth       float64 `json:"penalty_growth,omitempty" toml:"penalty_growth" yaml:"penalty_growth"`
	Reruns              int     `json:"reruns,omitempty" toml:"reruns" yaml:"reruns"`
	MultiplierDecay     float64 `json:"multiplier_decay,omitempty" toml:"multiplier_decay" yaml:"multiplier_decay"`
	RoomBloating        float64 `json:"room_bloating,omitempty" toml:"room_bloating" yaml:"room_bloating"`
	NoPushForce         bool    `json:"no_push_force,omitempty" toml:"no_push_force" yaml:"no_push_force"`
	PushScale           float64 `json:"push_scale,omitempty" toml:"push_scale" yaml:"push_scale"`
	PushRange           float64 `json:"push_range,omitempty" toml:"push_range" yaml:"push_range"`
	PushMode            string  `json:"push_mode,omitempty" toml:"push_mode" yaml:"push_mode"`
	NoShake             bool    `json:"no_shake,omitempty" toml:"no_shake" yaml:"no_shake"`
	ShakerPasses        int     `json:"shaker_passes,omitempty" toml:"shaker_passes" yaml:"shaker_passes"`

	// Render options
	Formats       []string `json:"formats,omitempty" toml:"formats" yaml:"formats"`
	Padding       float64  `json:"padding,omitempty" toml:"padding" yaml:"padding"`
	DoorSize      float64  `json:"door_size,omitempty" toml:"door_size" yaml:"door_size"`
	CorridorWidth float64  `json:"corridor_width,omitempty" toml:"corridor_width" yaml:"corridor_width"`
	HubColor      string   `json:"hub_color,omitempty" toml:"hub_color" yaml:"hub_color"`

	// Refresh bypasses cached models and layouts.
	Refresh bool `json:"refresh,omitempty" toml:"refresh" yaml:"refresh"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`

	// SnapshotDir, when set, receives an SVG per outer iteration.
	SnapshotDir string `json:"-" toml:"snapshot_dir" yaml:"snapshot_dir"`

	// Progress receives per-iteration statistics, for example a TUI.
	Progress func(callbacks.Progress) `json:"-" toml:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies the run, for example in API URLs.
	ID string

	// Model is the dungeon with the final layout applied.
	Model *model.Model

	// ModelHash is the content hash of the generated (unsolved) model.
	ModelHash string

	// Layout holds every solver pass and its report.
	Layout Layout

	// Artifacts contains rendered outputs of the final layout keyed by format.
	Artifacts map[string][]byte

	// RunSVGs contains the SVG of every pass, indexed by run id.
	RunSVGs [][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RoomCount     int
	CorridorCount int
	VariableCount int
	GenerateTime  time.Duration
	SolveTime     time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool `json:"generate"` // Whether the model came from cache
	SolveHit    bool `json:"solve"`    // Whether the layout came from cache
	RenderHit   bool `json:"render"`   // Whether all artifacts came from cache
}

// RunFileName returns the conventional file name of a pass's SVG.
func RunFileName(run int) string {
	return "result_run_" + strconv.Itoa(run) + ".svg"
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot, topology)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePushMode checks that a push mode is valid.
func ValidatePushMode(mode string) error {
	if !ValidPushModes[mode] {
		return errors.New(errors.ErrCodeInvalidSettings,
			"invalid push_mode: %q (must be one of: disconnected, all-pairs)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates every stage.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGenerate validates and sets defaults for the generator settings.
func (o *Options) ValidateForGenerate() error {
	o.setLoggerDefault()
	return o.Dungeon.ValidateAndSetDefaults()
}

// SetSolveDefaults sets default values for the solve stage.
func (o *Options) SetSolveDefaults() {
	if o.MaxIterations == 0 {
		o.MaxIterations = nlp.DefaultMaxIterations
	}
	if o.GradientTolerance == 0 {
		o.GradientTolerance = nlp.DefaultGradientTolerance
	}
	if o.ConstraintTolerance == 0 {
		o.ConstraintTolerance = nlp.DefaultConstraintTolerance
	}
	if o.InitialPenalty == 0 {
		o.InitialPenalty = nlp.DefaultInitialPenalty
	}
	if o.PenaltyGrowth == 0 {
		o.PenaltyGrowth = nlp.DefaultPenaltyGrowth
	}
	if o.MultiplierDecay == 0 {
		o.MultiplierDecay = solver.DefaultMultiplierDecay
	}
	if o.RoomBloating == 0 {
		o.RoomBloating = functions.DefaultRoomBloating
	}
	if o.PushScale == 0 {
		o.PushScale = functions.DefaultPushScale
	}
	if o.PushRange == 0 {
		o.PushRange = functions.DefaultPushRange
	}
	if o.PushMode == "" {
		o.PushMode = functions.PushDisconnected.String()
	}
	if o.ShakerPasses == 0 {
		o.ShakerPasses = callbacks.DefaultMaxPasses
	}
	o.setLoggerDefault()
}

// ValidateForSolve validates and sets defaults for the solve stage.
func (o *Options) ValidateForSolve() error {
	o.SetSolveDefaults()
	if o.Reruns < 0 || o.Reruns > MaxReruns {
		return errors.New(errors.ErrCodeInvalidSettings, "reruns must be in [0, %d], got %d", MaxReruns, o.Reruns)
	}
	if o.ShakerPasses < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "shaker passes must not be negative, got %d", o.ShakerPasses)
	}
	if o.PenaltyGrowth <= 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "penalty growth must exceed 1, got %g", o.PenaltyGrowth)
	}
	if o.InitialPenalty < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "initial penalty must not be negative, got %g", o.InitialPenalty)
	}
	if err := ValidatePushMode(o.PushMode); err != nil {
		return err
	}
	if o.SnapshotDir != "" {
		if err := errors.ValidateOutputDir(o.SnapshotDir); err != nil {
			return err
		}
	}
	so := o.SolverOptions()
	return so.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.HubColor == "" {
		o.HubColor = DefaultHubColor
	}
	o.setLoggerDefault()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Padding < 0 || o.DoorSize < 0 || o.CorridorWidth < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "padding, door size and corridor width must not be negative")
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// PushForce reports whether the push force objective is enabled.
func (o *Options) PushForce() bool {
	return !o.NoPushForce
}

// SolverOptions converts the solve options for [solver.New]. Modifiers and
// readers are attached by the runner.
func (o *Options) SolverOptions() solver.Options {
	mode, _ := functions.ParsePushMode(o.PushMode)
	return solver.Options{
		Settings: nlp.Settings{
			MaxIterations:       o.MaxIterations,
			GradientTolerance:   o.GradientTolerance,
			ConstraintTolerance: o.ConstraintTolerance,
			InitialPenalty:      o.InitialPenalty,
			PenaltyGrowth:       o.PenaltyGrowth,
		},
		RoomBloating:    o.RoomBloating,
		PushForce:       o.PushForce(),
		PushScale:       o.PushScale,
		PushRange:       o.PushRange,
		PushMode:        mode,
		MultiplierDecay: o.MultiplierDecay,
		Logger:          o.Logger,
	}
}

// ModelKeyOpts returns cache key options for model generation.
func (o *Options) ModelKeyOpts() cache.ModelKeyOpts {
	s := o.Dungeon
	extra := 0
	if s.AdditionalEdges != nil {
		extra = *s.AdditionalEdges
	}
	return cache.ModelKeyOpts{
		Kind:            string(s.Kind),
		RoomCount:       s.RoomCount,
		GridSide:        s.GridSide,
		AdditionalEdges: extra,
		RoomTypes:       roomTypeKey(s.RoomTypes),
		HubRoomTypes:    roomTypeKey(s.HubRoomTypes),
		Hub:             s.Hub(),
		HubNeighbors:    s.HubNeighbors,
		UniformRooms:    s.UniformRooms,
		TreeStrategy:    string(s.TreeStrategy),
		Seed:            s.Seed,
	}
}

// LayoutKeyOpts returns cache key options for the solve stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	shakerPasses := o.ShakerPasses
	if o.NoShake {
		shakerPasses = 0
	}
	return cache.LayoutKeyOpts{
		RoomBloating:        o.RoomBloating,
		PushForce:           o.PushForce(),
		PushScale:           o.PushScale,
		PushRange:           o.PushRange,
		PushMode:            o.PushMode,
		Reruns:              o.Reruns,
		MultiplierDecay:     o.MultiplierDecay,
		MaxIterations:       o.MaxIterations,
		GradientTolerance:   o.GradientTolerance,
		ConstraintTolerance: o.ConstraintTolerance,
		InitialPenalty:      o.InitialPenalty,
		PenaltyGrowth:       o.PenaltyGrowth,
		ShakerPasses:        shakerPasses,
		Seed:                o.Dungeon.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered artifact.
func (o *Options) ArtifactKeyOpts(format string, run int) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:        format,
		Run:           run,
		Padding:       o.Padding,
		DoorSize:      o.DoorSize,
		CorridorWidth: o.CorridorWidth,
		HubColor:      o.hubColor(),
	}
}

func (o *Options) hubColor() string {
	if !o.Dungeon.Hub() {
		return ""
	}
	return o.HubColor
}

// FormatList returns the formats as a comma separated string for logs.
func (o *Options) FormatList() string {
	return strings.Join(o.Formats, ",")
}

func roomTypeKey(types []generator.RoomType) [][3]float64 {
	out := make([][3]float64, len(types))
	for i, t := range types {
		out[i] = [3]float64{t.Width, t.Height, t.Weight}
	}
	return out
}

package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/cache"
	"github.com/K1ngNothing/dungeon-generation/pkg/callbacks"
	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/generator"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"topology", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidatePushMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"disconnected", false},
		{"all-pairs", false},
		{"everything", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidatePushMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePushMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.MaxIterations != nlp.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", opts.MaxIterations, nlp.DefaultMaxIterations)
	}
	if opts.PenaltyGrowth != nlp.DefaultPenaltyGrowth {
		t.Errorf("PenaltyGrowth = %g, want %g", opts.PenaltyGrowth, nlp.DefaultPenaltyGrowth)
	}
	if opts.RoomBloating != functions.DefaultRoomBloating {
		t.Errorf("RoomBloating = %g, want %g", opts.RoomBloating, functions.DefaultRoomBloating)
	}
	if opts.PushMode != "disconnected" {
		t.Errorf("PushMode = %q, want disconnected", opts.PushMode)
	}
	if !opts.PushForce() {
		t.Error("push force should be on by default")
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.HubColor != DefaultHubColor {
		t.Errorf("HubColor = %q, want %q", opts.HubColor, DefaultHubColor)
	}
	if opts.Dungeon.RoomCount != generator.DefaultRoomCount {
		t.Errorf("RoomCount = %d, want %d", opts.Dungeon.RoomCount, generator.DefaultRoomCount)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative reruns", Options{Reruns: -1}, errors.ErrCodeInvalidSettings},
		{"too many reruns", Options{Reruns: MaxReruns + 1}, errors.ErrCodeInvalidSettings},
		{"flat penalty", Options{PenaltyGrowth: 1}, errors.ErrCodeInvalidSettings},
		{"bad push mode", Options{PushMode: "nearest"}, errors.ErrCodeInvalidSettings},
		{"bad format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"negative padding", Options{Padding: -1}, errors.ErrCodeInvalidSettings},
		{"bad kind", Options{Dungeon: generator.Settings{Kind: "maze"}}, errors.ErrCodeInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestLayoutKeyIgnoresShakerPassesWhenDisabled(t *testing.T) {
	a := Options{NoShake: true, ShakerPasses: 10}
	b := Options{NoShake: true, ShakerPasses: 50}
	a.SetSolveDefaults()
	b.SetSolveDefaults()
	k := cache.NewDefaultKeyer()
	if k.LayoutKey("m", a.LayoutKeyOpts()) != k.LayoutKey("m", b.LayoutKeyOpts()) {
		t.Error("shaker passes should not matter when shaking is off")
	}
}

func TestRunFileName(t *testing.T) {
	if got := RunFileName(0); got != "result_run_0.svg" {
		t.Errorf("RunFileName(0) = %s", got)
	}
	if got := RunFileName(12); got != "result_run_12.svg" {
		t.Errorf("RunFileName(12) = %s", got)
	}
}

func TestLayoutMarshal(t *testing.T) {
	l := Layout{Runs: []Run{
		{ID: 0, Reason: "converged_tolerance", Variables: []float64{1, 2, 3, 4}},
		{ID: 1, Reason: RunFailed, Variables: []float64{1, 2, 3, 4}},
	}}
	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	got, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if got.Reason() != "converged_tolerance" {
		t.Errorf("Reason() = %s, want the first run's reason", got.Reason())
	}
	if got.Final().ID != 1 {
		t.Errorf("Final().ID = %d, want 1", got.Final().ID)
	}

	if _, err := UnmarshalLayout([]byte(`{"runs":[]}`)); err == nil {
		t.Error("layout without runs should be rejected")
	}
	if _, err := UnmarshalLayout([]byte(`{`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("truncated layout: %v, want INVALID_FORMAT", err)
	}
}

func smallOptions() Options {
	return Options{
		Dungeon: generator.Settings{
			Kind:     generator.KindGrid,
			GridSide: 2,
			Seed:     3,
		},
		MaxIterations: 5,
		Reruns:        1,
		Formats:       []string{FormatSVG, FormatJSON, FormatDOT},
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	first, err := runner.Execute(ctx, smallOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.Stats.RoomCount != 4 || first.Stats.CorridorCount != 4 {
		t.Errorf("stats = %+v, want 4 rooms and 4 corridors", first.Stats)
	}
	if len(first.Layout.Runs) != 2 {
		t.Errorf("runs = %d, want 2", len(first.Layout.Runs))
	}
	if len(first.RunSVGs) != 2 {
		t.Errorf("run SVGs = %d, want 2", len(first.RunSVGs))
	}
	for _, f := range []string{FormatSVG, FormatJSON, FormatDOT} {
		if len(first.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !bytes.Contains(first.Artifacts[FormatSVG], []byte("<svg")) {
		t.Error("svg artifact is not an SVG document")
	}
	if first.CacheInfo.GenerateHit || first.CacheInfo.SolveHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss every stage: %+v", first.CacheInfo)
	}
	if !first.Model.Solved() {
		t.Error("result model should carry the final layout")
	}

	second, err := runner.Execute(ctx, smallOptions())
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.GenerateHit || !second.CacheInfo.SolveHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit every stage: %+v", second.CacheInfo)
	}
	if second.ID == first.ID {
		t.Error("every run gets a fresh id")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from the rendered one")
	}

	opts := smallOptions()
	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.GenerateHit || third.CacheInfo.SolveHit {
		t.Errorf("refresh should bypass the model and layout caches: %+v", third.CacheInfo)
	}
}

func TestRunnerProgressForcesSolve(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	runner := NewRunner(fc, nil, nil)

	if _, err := runner.Execute(ctx, smallOptions()); err != nil {
		t.Fatal(err)
	}

	var calls int
	opts := smallOptions()
	opts.Progress = func(callbacks.Progress) { calls++ }
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.SolveHit {
		t.Error("a progress reader should force a fresh solve")
	}
	if calls == 0 {
		t.Error("progress reader was never called")
	}
}

func TestStoreAndLoadResult(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	runner := NewRunner(fc, nil, nil)

	opts := smallOptions()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	_ = opts.ValidateAndSetDefaults()
	stored, err := runner.StoreResult(ctx, res, opts)
	if err != nil {
		t.Fatalf("StoreResult: %v", err)
	}

	loaded, err := runner.LoadSummary(ctx, res.ID)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if loaded.ID != res.ID || loaded.Rooms != 4 || loaded.Runs != 2 {
		t.Errorf("summary = %+v", loaded)
	}
	if loaded.Kind != "grid" || loaded.Seed != 3 {
		t.Errorf("summary kind/seed = %s/%d", loaded.Kind, loaded.Seed)
	}
	if len(stored.Formats) != 3 || stored.Formats[0] != FormatDOT {
		t.Errorf("formats = %v, want sorted [dot json svg]", stored.Formats)
	}

	svg, err := runner.LoadArtifact(ctx, res.ID, FormatSVG)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if !bytes.Equal(svg, res.Artifacts[FormatSVG]) {
		t.Error("stored svg differs")
	}

	if _, err := runner.LoadArtifact(ctx, res.ID, FormatPNG); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing format: %v, want NOT_FOUND", err)
	}
	if _, err := runner.LoadSummary(ctx, "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing id: %v, want NOT_FOUND", err)
	}
	if _, err := runner.LoadArtifact(ctx, res.ID, "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format: %v, want INVALID_FORMAT", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	opts := Options{Dungeon: generator.Settings{RoomCount: 12, Seed: 9}}
	a, err := Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Rooms()) != len(b.Rooms()) || len(a.Corridors()) != len(b.Corridors()) {
		t.Error("same seed should give the same dungeon")
	}
}

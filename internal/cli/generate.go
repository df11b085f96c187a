package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/K1ngNothing/dungeon-generation/pkg/callbacks"
	"github.com/K1ngNothing/dungeon-generation/pkg/config"
	"github.com/K1ngNothing/dungeon-generation/pkg/generator"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

// generateFlags holds the flag values of the generate command. Only flags
// the user set override the config file.
type generateFlags struct {
	opts       pipeline.Options
	kind       string
	strategy   string
	extraEdges int
	formats    string
	configPath string
	output     string
	cache      string
	noCache    bool
	noRuns     bool
	watch      bool
}

// overlays copy one flag from the parsed flags into the effective options.
var overlays = map[string]func(dst *pipeline.Options, f *generateFlags){
	"kind":          func(d *pipeline.Options, f *generateFlags) { d.Dungeon.Kind = generator.Kind(f.kind) },
	"rooms":         func(d *pipeline.Options, f *generateFlags) { d.Dungeon.RoomCount = f.opts.Dungeon.RoomCount },
	"grid-side":     func(d *pipeline.Options, f *generateFlags) { d.Dungeon.GridSide = f.opts.Dungeon.GridSide },
	"extra-edges":   func(d *pipeline.Options, f *generateFlags) { n := f.extraEdges; d.Dungeon.AdditionalEdges = &n },
	"no-hub":        func(d *pipeline.Options, f *generateFlags) { d.Dungeon.DisableHub = f.opts.Dungeon.DisableHub },
	"hub-neighbors": func(d *pipeline.Options, f *generateFlags) { d.Dungeon.HubNeighbors = f.opts.Dungeon.HubNeighbors },
	"uniform":       func(d *pipeline.Options, f *generateFlags) { d.Dungeon.UniformRooms = f.opts.Dungeon.UniformRooms },
	"tree-strategy": func(d *pipeline.Options, f *generateFlags) { d.Dungeon.TreeStrategy = generator.TreeStrategy(f.strategy) },
	"seed":          func(d *pipeline.Options, f *generateFlags) { d.Dungeon.Seed = f.opts.Dungeon.Seed },
	"max-iter":      func(d *pipeline.Options, f *generateFlags) { d.MaxIterations = f.opts.MaxIterations },
	"reruns":        func(d *pipeline.Options, f *generateFlags) { d.Reruns = f.opts.Reruns },
	"bloating":      func(d *pipeline.Options, f *generateFlags) { d.RoomBloating = f.opts.RoomBloating },
	"no-push":       func(d *pipeline.Options, f *generateFlags) { d.NoPushForce = f.opts.NoPushForce },
	"push-scale":    func(d *pipeline.Options, f *generateFlags) { d.PushScale = f.opts.PushScale },
	"push-range":    func(d *pipeline.Options, f *generateFlags) { d.PushRange = f.opts.PushRange },
	"push-mode":     func(d *pipeline.Options, f *generateFlags) { d.PushMode = f.opts.PushMode },
	"no-shake":      func(d *pipeline.Options, f *generateFlags) { d.NoShake = f.opts.NoShake },
	"shaker-passes": func(d *pipeline.Options, f *generateFlags) { d.ShakerPasses = f.opts.ShakerPasses },
	"format":        func(d *pipeline.Options, f *generateFlags) { d.Formats = parseFormats(f.formats) },
	"snapshots":     func(d *pipeline.Options, f *generateFlags) { d.SnapshotDir = f.opts.SnapshotDir },
	"refresh":       func(d *pipeline.Options, f *generateFlags) { d.Refresh = f.opts.Refresh },
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dungeon and place its rooms",
		Long: `Generate a random dungeon, place its rooms and write the results.

The final layout is written as dungeon.<format> for every requested format,
and every solver pass as result_run_N.svg. Settings can come from a TOML or
YAML file given with --config; flags override the file.

Models, layouts and renders are cached, so repeating a run with the same
seed is instant. Use --refresh to recompute.`,
		Example: `  dungeongen generate --rooms 30 --seed 7
  dungeongen generate --kind grid --grid-side 5 -f svg,json -o out
  dungeongen generate --config dungeon.toml --reruns 3 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg != nil && cfg.LogLevel != "" && !cmd.Flags().Changed("verbose") {
				if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
					c.SetLogLevel(level)
				}
			}
			return c.runGenerate(cmd.Context(), opts, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "TOML or YAML config file")
	fl.StringVarP(&f.output, "output", "o", ".", "output directory")
	fl.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), json, dot, topology, pdf, png (comma-separated)")
	fl.BoolVar(&f.noRuns, "no-runs", false, "do not write result_run_N.svg files")
	fl.BoolVar(&f.watch, "watch", false, "show live solver progress")
	fl.StringVar(&f.cache, "cache", "", "cache target: dir, file://dir, redis://..., mongodb://... or none")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached models and layouts")

	// Generator flags
	fl.StringVar(&f.kind, "kind", "", "dungeon kind: movable-doors (default), grid, center-doors, tree-fixed-doors")
	fl.IntVarP(&f.opts.Dungeon.RoomCount, "rooms", "n", 0, fmt.Sprintf("room count (default %d)", generator.DefaultRoomCount))
	fl.IntVar(&f.opts.Dungeon.GridSide, "grid-side", 0, fmt.Sprintf("rooms per side of a grid dungeon (default %d)", generator.DefaultGridSide))
	fl.IntVar(&f.extraEdges, "extra-edges", 0, "corridors beyond the spanning tree (default 10% of rooms)")
	fl.BoolVar(&f.opts.Dungeon.DisableHub, "no-hub", false, "make room 0 a regular room")
	fl.IntVar(&f.opts.Dungeon.HubNeighbors, "hub-neighbors", 0, "rooms attached to the hub (default 10% of rooms)")
	fl.BoolVar(&f.opts.Dungeon.UniformRooms, "uniform", false, "give every room the same size")
	fl.StringVar(&f.strategy, "tree-strategy", "", "spanning tree: random-child-count (default), random-predecessors")
	fl.Uint64Var(&f.opts.Dungeon.Seed, "seed", 0, "random seed (0 picks the fixed default)")

	// Solver flags
	fl.IntVar(&f.opts.MaxIterations, "max-iter", 0, "outer iterations per pass")
	fl.IntVar(&f.opts.Reruns, "reruns", 0, fmt.Sprintf("extra solver passes, at most %d", pipeline.MaxReruns))
	fl.Float64Var(&f.opts.RoomBloating, "bloating", 0, "gap kept between rooms")
	fl.BoolVar(&f.opts.NoPushForce, "no-push", false, "disable the push force objective")
	fl.Float64Var(&f.opts.PushScale, "push-scale", 0, "push force weight")
	fl.Float64Var(&f.opts.PushRange, "push-range", 0, "distance at which the push force fades")
	fl.StringVar(&f.opts.PushMode, "push-mode", "", "push force pairs: disconnected (default), all-pairs")
	fl.BoolVar(&f.opts.NoShake, "no-shake", false, "disable the room shaker")
	fl.IntVar(&f.opts.ShakerPasses, "shaker-passes", 0, "shaker passes per iteration")
	fl.StringVar(&f.opts.SnapshotDir, "snapshots", "", "write an SVG per outer iteration into this directory")

	return cmd
}

// resolve merges the config file, if any, with the flags the user set.
func (f *generateFlags) resolve(flags *pflag.FlagSet) (pipeline.Options, *config.Config, error) {
	var opts pipeline.Options
	var cfg *config.Config
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return pipeline.Options{}, nil, err
		}
		cfg = loaded
		opts = cfg.Pipeline
		if !flags.Changed("cache") && cfg.Cache != "" {
			f.cache = cfg.Cache
		}
		if !flags.Changed("output") && cfg.Output != "" {
			f.output = cfg.Output
		}
	}
	for name, apply := range overlays {
		if flags.Changed(name) {
			apply(&opts, f)
		}
	}
	if len(opts.Formats) == 0 {
		opts.Formats = parseFormats(f.formats)
	}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return pipeline.Options{}, nil, err
	}
	return opts, cfg, nil
}

func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, f generateFlags) error {
	logger := loggerFromContext(ctx)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, f.cache, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	var result *pipeline.Result
	if f.watch {
		result, err = watchExecute(ctx, runner, opts)
	} else {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d rooms...", opts.Dungeon.TotalRooms()))
		if f.noCache {
			// Without a cache every solve is fresh, so progress costs nothing.
			opts.Progress = func(p callbacks.Progress) {
				spinner.Update(fmt.Sprintf("Placing %d rooms: run %d, iteration %d, overlap %.3g",
					opts.Dungeon.TotalRooms(), p.Run, p.Iteration, p.MaxOverlap))
			}
		}
		spinner.Start()
		result, err = runner.Execute(ctx, opts)
		if err != nil {
			spinner.StopWithError("Generation failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	prog.done("Generated dungeon", "rooms", result.Stats.RoomCount, "reason", result.Layout.Reason())

	paths, err := writeResult(result, f.output, !f.noRuns)
	if err != nil {
		return err
	}

	printSummary(result, opts)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeResult writes the artifacts and, when runs is set, the SVG of every
// pass into dir. It returns the written paths.
func writeResult(result *pipeline.Result, dir string, runs bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var paths []string
	for _, format := range sortedFormats(result.Artifacts) {
		path := filepath.Join(dir, artifactFileName(format))
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	if runs {
		for i, svg := range result.RunSVGs {
			path := filepath.Join(dir, pipeline.RunFileName(i))
			if err := writeFile(path, svg); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// artifactFileName names the output file of a format.
func artifactFileName(format string) string {
	if format == pipeline.FormatTopology {
		return "dungeon_topology.svg"
	}
	return "dungeon." + format
}

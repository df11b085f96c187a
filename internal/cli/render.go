package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

// renderCommand creates the render command for drawing a model file.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		cacheFlag  string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [model.json]",
		Short: "Render a dungeon model file",
		Long: `Render a dungeon model written by 'generate -f json'.

A model without a layout is solved first with the default solver settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, cacheFlag, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, topology, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&cacheFlag, "cache", "", "cache target used when the model must be solved")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&opts.Padding, "padding", 0, "padding around the dungeon as a fraction of its extent")
	cmd.Flags().Float64Var(&opts.DoorSize, "door-size", 0, "door square side")
	cmd.Flags().Float64Var(&opts.CorridorWidth, "corridor-width", 0, "corridor stroke width")
	cmd.Flags().StringVar(&opts.HubColor, "hub-color", "", "fill of the hub room")
	cmd.Flags().BoolVar(&opts.Dungeon.DisableHub, "no-hub", false, "draw room 0 like the others")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output, cacheTarget string, noCache bool, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)

	m, err := model.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load model %s: %w", input, err)
	}
	logger.Debug("loaded model", "rooms", len(m.Rooms()), "corridors", len(m.Corridors()), "solved", m.Solved())

	layout, err := c.layoutOf(ctx, m, cacheTarget, noCache, opts)
	if err != nil {
		return err
	}

	artifacts, err := pipeline.Render(ctx, m, layout, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	base := renderBasePath(output, input)
	for _, format := range opts.Formats {
		path := base + "." + format
		if format == pipeline.FormatTopology {
			path = base + "_topology.svg"
		}
		if len(opts.Formats) == 1 && output != "" {
			path = output
		}
		if err := writeFile(path, artifacts[format]); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// layoutOf returns the stored layout of m, solving it when it has none.
func (c *CLI) layoutOf(ctx context.Context, m *model.Model, cacheTarget string, noCache bool, opts pipeline.Options) (pipeline.Layout, error) {
	if x, ok := m.Variables(); ok {
		return pipeline.Layout{Runs: []pipeline.Run{{Reason: "imported", Variables: x}}}, nil
	}

	runner, err := c.newRunner(ctx, cacheTarget, noCache)
	if err != nil {
		return pipeline.Layout{}, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d rooms...", len(m.Rooms())))
	spinner.Start()
	layout, err := runner.Solve(ctx, m, opts)
	if err != nil {
		spinner.StopWithError("Solve failed")
		return pipeline.Layout{}, fmt.Errorf("solve: %w", err)
	}
	spinner.Stop()
	printInfo("Solved layout: %s", layout.Reason())
	return layout, nil
}

// renderBasePath derives the base output path from the output and input file paths.
func renderBasePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

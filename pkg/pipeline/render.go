package pipeline

import (
	"context"
	"fmt"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/render"
	"github.com/K1ngNothing/dungeon-generation/pkg/render/dungeon"
	"github.com/K1ngNothing/dungeon-generation/pkg/render/topology"
)

// Render generates output artifacts of the final pass in the requested
// formats. m is not modified.
func Render(ctx context.Context, m *model.Model, layout Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	final := m.Clone()
	if err := layout.Apply(final); err != nil {
		return nil, err
	}

	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	needSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = dungeon.RenderSVG(final, svgOpts...)
		return svg, err
	}
	var dot string
	needDOT := func() string {
		if dot == "" {
			dot = topology.ToDOT(final, topology.Options{Detailed: true, Hub: opts.Dungeon.Hub()})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = needSVG()
		case FormatPDF:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatPNG:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPNG(ctx, data, DefaultPNGScale)
			}
		case FormatJSON:
			data, err = model.Marshal(final)
		case FormatDOT:
			data = []byte(needDOT())
		case FormatTopology:
			data, err = topology.RenderSVG(ctx, needDOT())
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderRuns draws every pass of layout as SVG, indexed by run id.
func RenderRuns(m *model.Model, layout Layout, opts Options) ([][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	work := m.Clone()
	out := make([][]byte, len(layout.Runs))
	for i := range layout.Runs {
		if err := layout.ApplyRun(work, i); err != nil {
			return nil, err
		}
		svg, err := dungeon.RenderSVG(work, svgOpts...)
		if err != nil {
			return nil, fmt.Errorf("render run %d: %w", i, err)
		}
		out[i] = svg
	}
	return out, nil
}

// buildSVGOptions converts render options, leaving zero values at the
// renderer defaults.
func buildSVGOptions(opts Options) []dungeon.SVGOption {
	var out []dungeon.SVGOption
	if opts.Padding > 0 {
		out = append(out, dungeon.WithPadding(opts.Padding))
	}
	if opts.DoorSize > 0 {
		out = append(out, dungeon.WithDoorSize(opts.DoorSize))
	}
	if opts.CorridorWidth > 0 {
		out = append(out, dungeon.WithCorridorWidth(opts.CorridorWidth))
	}
	if color := opts.hubColor(); color != "" {
		out = append(out, dungeon.WithHub(color))
	}
	return out
}

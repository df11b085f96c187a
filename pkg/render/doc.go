// Package render turns solved dungeons into images.
//
// # Overview
//
// This package contains the format conversion shared by the renderers:
//
//   - Dungeon floor plans (in [dungeon] subpackage)
//   - Room connectivity diagrams (in [topology] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := dungeon.RenderSVG(m)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Topology Diagrams
//
// The [topology] subpackage renders the room graph with Graphviz, ignoring
// room positions:
//
//	dot := topology.ToDOT(m, topology.Options{})
//	svg, err := topology.RenderSVG(ctx, dot)
//
// [dungeon]: github.com/K1ngNothing/dungeon-generation/pkg/render/dungeon
// [topology]: github.com/K1ngNothing/dungeon-generation/pkg/render/topology
package render

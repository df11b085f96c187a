// Package pkg holds the libraries behind dungeongen.
//
// # Overview
//
// dungeongen builds a dungeon in two steps. A random room graph fixes which
// rooms are connected; a constrained optimizer then places the rooms so that
// corridors stay short and rooms do not overlap. The packages are layered:
//
//  1. [model] - rooms, doors, corridors and the flat variable vector
//  2. [functions] - corridor length, push force and room overlap terms
//  3. [nlp] - augmented Lagrangian loop over a gonum L-BFGS inner solve
//  4. [solver] - the driver: objective assembly, reruns, callbacks
//  5. [callbacks] - the room shaker, SVG snapshots and progress reports
//  6. [generator] - random room graphs and the four dungeon kinds
//  7. [render] - SVG floor plans and Graphviz topology diagrams
//  8. [pipeline] - generate → solve → render with caching
//  9. [cache], [config], [api] - storage backends, config files, HTTP
//
// # Architecture
//
//	generator.Settings
//	         ↓
//	    [generator] (room graph + model)
//	         ↓
//	    [solver] (positions)  ← [callbacks] shake / snapshot / progress
//	         ↓
//	    [render] (SVG, PDF, PNG, DOT)
//
// # Quick Start
//
//	m, err := generator.Generate(generator.Settings{RoomCount: 30, Seed: 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := solver.New(m, solver.Options{PushForce: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Solve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	svg, err := dungeon.RenderSVG(m)
//
// Most callers use [pipeline.Runner], which adds caching and reruns:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dungeon: generator.Settings{Kind: generator.KindGrid, GridSide: 5},
//	})
//
// [model]: github.com/K1ngNothing/dungeon-generation/pkg/model
// [functions]: github.com/K1ngNothing/dungeon-generation/pkg/functions
// [nlp]: github.com/K1ngNothing/dungeon-generation/pkg/nlp
// [solver]: github.com/K1ngNothing/dungeon-generation/pkg/solver
// [callbacks]: github.com/K1ngNothing/dungeon-generation/pkg/callbacks
// [generator]: github.com/K1ngNothing/dungeon-generation/pkg/generator
// [render]: github.com/K1ngNothing/dungeon-generation/pkg/render
// [pipeline]: github.com/K1ngNothing/dungeon-generation/pkg/pipeline
// [cache]: github.com/K1ngNothing/dungeon-generation/pkg/cache
// [config]: github.com/K1ngNothing/dungeon-generation/pkg/config
// [api]: github.com/K1ngNothing/dungeon-generation/pkg/api
package pkg

// Package generator builds random dungeon models ready for layout.
//
// A dungeon is generated in two steps: a room graph is drawn (a random
// spanning tree plus a few extra edges), then rooms and doors are created
// and every graph edge becomes a corridor. Four kinds are supported:
//
//   - [KindGrid]: a fixed side×side grid of equal rooms, mostly a smoke test
//     for the solver because its optimal layout is known.
//   - [KindCenterDoors]: one door in the middle of each room.
//   - [KindTreeFixedDoors]: four doors per room, linked only east-west or
//     north-south along a random tree.
//   - [KindMovableDoors]: one movable door per corridor end, which the solver
//     slides along its room.
//
// Every random choice comes from a single [random.RNG] seeded from
// [Settings.Seed], so the same settings always produce the same model:
//
//	m, err := generator.Generate(generator.Settings{
//	    Kind:      generator.KindMovableDoors,
//	    RoomCount: 30,
//	    Seed:      7,
//	})
package generator

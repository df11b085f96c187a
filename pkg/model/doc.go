// Package model defines the dungeon entities that the layout optimizer places.
//
// # Overview
//
// A [Model] holds [Room] values, their [Door] endpoints and the [Corridor]
// pairs that connect doors of different rooms. Rooms and movable doors are
// the optimization entities: each owns an [EntityID] and therefore a pair of
// coordinates in the solver's flat variable vector.
//
// # Variable Index Space
//
// Entity ids share one dense namespace. Rooms take ids 0..roomCount-1 in
// order, movable doors take the ids that follow. Entity id maps to the
// variable indices 2*id and 2*id+1:
//
//	xi, yi := model.IndicesOf(room.ID())
//	center := model.ValueOf(x, room.ID())
//
// # Doors
//
// A door is either a [FixedDoor], which carries a constant shift from its
// room center, or a [*MovableDoor], which owns its own variables and is
// bounded to a fraction of its room's size. Both resolve their absolute
// position from the variable buffer with Door.Position, and both report the
// entities whose variables move them with Door.Owners.
//
// # Lifecycle
//
// Generators build a Model once. Solving only ever changes positions, through
// [Model.SetPositions]; the structure stays fixed across reruns.
package model

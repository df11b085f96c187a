package model

import "fmt"

// EntityID identifies an optimization entity: a room or a movable door.
type EntityID int

// HasVariableID is implemented by every entity that owns a coordinate pair
// in the variable vector.
type HasVariableID interface {
	ID() EntityID
}

// IndicesOf returns the variable indices holding the x and y coordinates of id.
// It panics on a negative id.
func IndicesOf(id EntityID) (xIndex, yIndex int) {
	if id < 0 {
		panic(fmt.Sprintf("model: invalid entity id %d", id))
	}
	return 2 * int(id), 2*int(id) + 1
}

// ValueOf reads the coordinate pair of id from the raw variable vector.
// It panics when id lies outside the vector.
func ValueOf(x []float64, id EntityID) Position {
	xi, yi := IndicesOf(id)
	if yi >= len(x) {
		panic(fmt.Sprintf("model: entity id %d out of range for %d variables", id, len(x)))
	}
	return Position{X: x[xi], Y: x[yi]}
}

// VariablesCount returns the length of the variable vector for objectCount entities.
func VariablesCount(objectCount int) int {
	return 2 * objectCount
}

// PositionsFromVariables maps a raw variable vector to one position per entity id.
func PositionsFromVariables(x []float64) []Position {
	if len(x)%2 != 0 {
		panic(fmt.Sprintf("model: odd variable count %d", len(x)))
	}
	out := make([]Position, len(x)/2)
	for id := range out {
		out[id] = ValueOf(x, EntityID(id))
	}
	return out
}

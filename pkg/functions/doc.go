// Package functions holds the differentiable cost and constraint terms of the
// layout problem.
//
// Every term reads positions from the raw variable vector through
// [model.ValueOf] and routes each partial derivative to every variable that
// contributes to a position: a door's absolute position is its room center
// plus its shift, so a movable door and its room receive the same partial.
//
// Objectives accumulate: [Objective.Evaluate] returns its value and adds its
// gradient into the caller's buffer, so several terms can share one buffer.
package functions

import "github.com/K1ngNothing/dungeon-generation/pkg/model"

// Objective is a differentiable cost term.
type Objective interface {
	// Evaluate returns the term's value at x and, when grad is non-nil, adds
	// its gradient into grad.
	Evaluate(x, grad []float64) float64
}

// Sum is an objective adding up its terms.
type Sum []Objective

// Evaluate implements [Objective].
func (s Sum) Evaluate(x, grad []float64) float64 {
	total := 0.0
	for _, term := range s {
		total += term.Evaluate(x, grad)
	}
	return total
}

// addGrad adds (gx, gy) to the coordinate pair of every owner.
func addGrad(grad []float64, gx, gy float64, owners ...model.EntityID) {
	for _, id := range owners {
		xi, yi := model.IndicesOf(id)
		grad[xi] += gx
		grad[yi] += gy
	}
}

// roomPair is an unordered pair of rooms with their half-extent sums.
type roomPair struct {
	room1, room2 model.EntityID
	sumHW, sumHH float64
}

func newRoomPair(r1, r2 *model.Room, bloat float64) roomPair {
	return roomPair{
		room1: r1.ID(),
		room2: r2.ID(),
		sumHW: (r1.HalfWidth() + r2.HalfWidth()) * bloat,
		sumHH: (r1.HalfHeight() + r2.HalfHeight()) * bloat,
	}
}

// delta returns center1 - center2.
func (p roomPair) delta(x []float64) (dx, dy float64) {
	c1 := model.ValueOf(x, p.room1)
	c2 := model.ValueOf(x, p.room2)
	return c1.X - c2.X, c1.Y - c2.Y
}

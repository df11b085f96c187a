package functions

import (
	"fmt"
	"math"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
)

// DefaultRoomBloating is the default half-extent multiplier for overlap tests.
const DefaultRoomBloating = 1.5

// RoomOverlap is one equality constraint per unordered room pair. With the
// half-extents bloated and summed per axis,
//
//	fx = (dx/sumHW)² - 1, fy = (dy/sumHH)² - 1
//	c = fx²·fy²  when |dx| < sumHW and |dy| < sumHH, else 0
//
// so c lies in [0, 1] and equals 1 when the centers coincide.
type RoomOverlap struct {
	bloating float64
	pairs    []roomPair
}

// NewRoomOverlap builds one constraint per room pair of m, in (i, j) order
// with i < j. It panics unless bloating is positive.
func NewRoomOverlap(m *model.Model, bloating float64) *RoomOverlap {
	if bloating <= 0 {
		panic(fmt.Sprintf("functions: room bloating must be positive, got %g", bloating))
	}
	rooms := m.Rooms()
	pairs := make([]roomPair, 0, len(rooms)*(len(rooms)-1)/2)
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			pairs = append(pairs, newRoomPair(rooms[i], rooms[j], bloating))
		}
	}
	return &RoomOverlap{bloating: bloating, pairs: pairs}
}

// Count returns the number of constraints.
func (o *RoomOverlap) Count() int { return len(o.pairs) }

// Bloating returns the half-extent multiplier.
func (o *RoomOverlap) Bloating() float64 { return o.bloating }

// Rooms returns the room pair constrained by constraint i.
func (o *RoomOverlap) Rooms(i int) (model.EntityID, model.EntityID) {
	return o.pairs[i].room1, o.pairs[i].room2
}

// Evaluate returns the value of constraint i at x. When row is non-nil it is
// reset and filled with the partials for [x1, y1, x2, y2]; outside the
// overlap box these are all zero.
func (o *RoomOverlap) Evaluate(i int, x []float64, row *nlp.Row) float64 {
	p := o.pairs[i]
	dx, dy := p.delta(x)

	value, gx, gy := 0.0, 0.0, 0.0
	if math.Abs(dx) < p.sumHW && math.Abs(dy) < p.sumHH {
		rx, ry := dx/p.sumHW, dy/p.sumHH
		fx, fy := rx*rx-1, ry*ry-1
		value = fx * fx * fy * fy
		gx = 4 * fy * fy * fx * dx / (p.sumHW * p.sumHW)
		gy = 4 * fx * fx * fy * dy / (p.sumHH * p.sumHH)
	}

	if row != nil {
		x1, y1 := model.IndicesOf(p.room1)
		x2, y2 := model.IndicesOf(p.room2)
		row.Reset()
		row.Add(x1, gx)
		row.Add(y1, gy)
		row.Add(x2, -gx)
		row.Add(y2, -gy)
	}
	return value
}

// Max returns the largest constraint value at x.
func (o *RoomOverlap) Max(x []float64) float64 {
	worst := 0.0
	for i := range o.pairs {
		worst = math.Max(worst, o.Evaluate(i, x, nil))
	}
	return worst
}

package functions

import (
	"fmt"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
)

// Push force defaults.
const (
	DefaultPushScale = 10.0
	DefaultPushRange = 5.0
)

// PushMode selects the room pairs the push force acts on.
type PushMode int

const (
	// PushDisconnected repels only rooms without a corridor between them.
	PushDisconnected PushMode = iota

	// PushAllPairs repels every pair of rooms.
	PushAllPairs
)

func (m PushMode) String() string {
	switch m {
	case PushDisconnected:
		return "disconnected"
	case PushAllPairs:
		return "all-pairs"
	default:
		return fmt.Sprintf("PushMode(%d)", int(m))
	}
}

// ParsePushMode parses the String form of a PushMode.
func ParsePushMode(s string) (PushMode, error) {
	switch s {
	case "disconnected", "":
		return PushDisconnected, nil
	case "all-pairs":
		return PushAllPairs, nil
	default:
		return 0, fmt.Errorf("unknown push mode %q", s)
	}
}

// PushForce is a smooth repulsion between room centers:
//
//	xRatio = dx/(range·sumHW), yRatio = dy/(range·sumHH)
//	f = scale / (xRatio² + yRatio² + 1)
//
// Each pair contributes a value in (0, scale], equal to scale when the
// centers coincide.
type PushForce struct {
	scale float64
	rng   float64
	pairs []roomPair
}

// NewPushForce builds the push term over the pairs of m selected by mode.
// It panics unless scale and rng are positive.
func NewPushForce(m *model.Model, scale, rng float64, mode PushMode) *PushForce {
	if scale <= 0 || rng <= 0 {
		panic(fmt.Sprintf("functions: push force needs positive scale and range, got %g and %g", scale, rng))
	}
	rooms := m.Rooms()
	var adj [][]bool
	if mode == PushDisconnected {
		adj = m.Adjacency()
	}
	var pairs []roomPair
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			if adj != nil && adj[i][j] {
				continue
			}
			pairs = append(pairs, newRoomPair(rooms[i], rooms[j], 1))
		}
	}
	return &PushForce{scale: scale, rng: rng, pairs: pairs}
}

// Pairs returns the number of room pairs the force acts on.
func (p *PushForce) Pairs() int { return len(p.pairs) }

// Evaluate implements [Objective].
func (p *PushForce) Evaluate(x, grad []float64) float64 {
	total := 0.0
	for _, pair := range p.pairs {
		dx, dy := pair.delta(x)
		wx := p.rng * pair.sumHW
		wy := p.rng * pair.sumHH
		xRatio, yRatio := dx/wx, dy/wy
		denom := xRatio*xRatio + yRatio*yRatio + 1
		f := p.scale / denom
		total += f
		if grad != nil {
			gx := -2 * xRatio / wx * f / denom
			gy := -2 * yRatio / wy * f / denom
			addGrad(grad, gx, gy, pair.room1)
			addGrad(grad, -gx, -gy, pair.room2)
		}
	}
	return total
}

package functions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/nlp"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

const (
	fdEpsilon   = 1e-4
	fdTolerance = 5e-3
	fdSamples   = 2000
)

// mixedModel has three rooms in a chain 0-1-2 with movable doors on rooms 0
// and 2 and fixed doors on room 1.
func mixedModel(t *testing.T) *model.Model {
	t.Helper()
	r0 := model.NewRoom(0, 20, 20)
	r1 := model.NewRoom(1, 30, 10)
	r2 := model.NewRoom(2, 20, 40)
	d0 := r0.AddDoor(model.NewMovableDoor(0, 3))
	d1a := r1.AddDoor(model.NewFixedDoor(1, model.Position{X: -12, Y: 0}))
	d1b := r1.AddDoor(model.NewFixedDoor(1, model.Position{X: 12, Y: 0}))
	d2 := r2.AddDoor(model.NewMovableDoor(2, 4))
	m, err := model.New(
		[]*model.Room{r0, r1, r2},
		[]model.Corridor{model.NewCorridor(d0, d1a), model.NewCorridor(d1b, d2)},
	)
	require.NoError(t, err)
	return m
}

// twoRooms returns a model with two unconnected rooms of the given sizes.
func twoRooms(t *testing.T, w1, h1, w2, h2 float64) *model.Model {
	t.Helper()
	m, err := model.New([]*model.Room{model.NewRoom(0, w1, h1), model.NewRoom(1, w2, h2)}, nil)
	require.NoError(t, err)
	return m
}

// randomPoint fills x with coordinates spread wide enough that room pairs are
// sampled both inside and outside their overlap boxes.
func randomPoint(rng *random.RNG, x []float64, spread float64) {
	for i := range x {
		x[i] = rng.UniformRange(-spread, spread)
	}
}

// checkGradient compares grad against forward differences of f at x.
func checkGradient(t *testing.T, f func(x []float64) float64, x, grad []float64) {
	t.Helper()
	base := f(x)
	for i := range x {
		saved := x[i]
		x[i] += fdEpsilon
		fd := (f(x) - base) / fdEpsilon
		x[i] = saved
		if math.Abs(fd-grad[i]) > fdTolerance {
			t.Fatalf("d/dx[%d] at %v: analytic %g, finite difference %g", i, x, grad[i], fd)
		}
	}
}

func TestObjectiveGradients(t *testing.T) {
	m := mixedModel(t)
	tests := []struct {
		name string
		obj  Objective
	}{
		{"corridor length", NewCorridorLength(m)},
		{"push disconnected", NewPushForce(m, DefaultPushScale, DefaultPushRange, PushDisconnected)},
		{"push all pairs", NewPushForce(m, 3, 1, PushAllPairs)},
		{"sum", Sum{NewCorridorLength(m), NewPushForce(m, DefaultPushScale, DefaultPushRange, PushAllPairs)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := random.New(7)
			x := make([]float64, m.VariablesCount())
			grad := make([]float64, len(x))
			value := func(x []float64) float64 { return tt.obj.Evaluate(x, nil) }
			for s := 0; s < fdSamples; s++ {
				randomPoint(rng, x, 40)
				clear(grad)
				tt.obj.Evaluate(x, grad)
				checkGradient(t, value, x, grad)
			}
		})
	}
}

func TestRoomOverlapGradient(t *testing.T) {
	m := mixedModel(t)
	o := NewRoomOverlap(m, 1.25)
	require.Equal(t, 3, o.Count())

	rng := random.New(11)
	x := make([]float64, m.VariablesCount())
	grad := make([]float64, len(x))
	var row nlp.Row
	for s := 0; s < fdSamples; s++ {
		randomPoint(rng, x, 30)
		for i := 0; i < o.Count(); i++ {
			o.Evaluate(i, x, &row)
			require.Equal(t, 4, row.Len())
			clear(grad)
			row.Scatter(1, grad)
			value := func(x []float64) float64 { return o.Evaluate(i, x, nil) }
			checkGradient(t, value, x, grad)
		}
	}
}

func TestRoomOverlapBounds(t *testing.T) {
	m := mixedModel(t)
	o := NewRoomOverlap(m, 1.5)
	rng := random.New(3)
	x := make([]float64, m.VariablesCount())
	for s := 0; s < fdSamples; s++ {
		randomPoint(rng, x, 50)
		for i := 0; i < o.Count(); i++ {
			v := o.Evaluate(i, x, nil)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRoomOverlapValues(t *testing.T) {
	m := twoRooms(t, 10, 20, 20, 10)
	o := NewRoomOverlap(m, 1.0)

	tests := []struct {
		name   string
		c1, c2 model.Position
		want   float64
		exact  bool
	}{
		{"coincident", model.Position{X: 3, Y: -4}, model.Position{X: 3, Y: -4}, 1, true},
		{"partial overlap", model.Position{}, model.Position{X: 10, Y: 10}, 0.095259868, false},
		{"touching on x", model.Position{}, model.Position{X: 15, Y: 0}, 0, true},
		{"apart on x", model.Position{}, model.Position{X: -40, Y: 1}, 0, true},
		{"apart on y only", model.Position{}, model.Position{X: 1, Y: 15.5}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := []float64{tt.c1.X, tt.c1.Y, tt.c2.X, tt.c2.Y}
			var row nlp.Row
			got := o.Evaluate(0, x, &row)
			if tt.exact {
				assert.Equal(t, tt.want, got)
			} else {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
			if got == 0 || got == 1 {
				for _, e := range row.Entries() {
					assert.Zero(t, e.Val, "column %d", e.Col)
				}
			}
		})
	}
}

func TestRoomOverlapJacobianLayout(t *testing.T) {
	m := twoRooms(t, 10, 20, 20, 10)
	o := NewRoomOverlap(m, 1.0)
	var row nlp.Row
	o.Evaluate(0, []float64{0, 0, 10, 10}, &row)

	entries := row.Entries()
	require.Len(t, entries, 4)
	cols := []int{entries[0].Col, entries[1].Col, entries[2].Col, entries[3].Col}
	assert.Equal(t, []int{0, 1, 2, 3}, cols)
	assert.Equal(t, entries[0].Val, -entries[2].Val)
	assert.Equal(t, entries[1].Val, -entries[3].Val)

	a, b := o.Rooms(0)
	assert.Equal(t, model.EntityID(0), a)
	assert.Equal(t, model.EntityID(1), b)
}

func TestPushForceValues(t *testing.T) {
	m := twoRooms(t, 10, 10, 20, 20)

	p := NewPushForce(m, 1, 1, PushDisconnected)
	require.Equal(t, 1, p.Pairs())
	assert.Equal(t, 1.0, p.Evaluate([]float64{5, 5, 5, 5}, nil))
	assert.InDelta(t, 0.2647058823529412, p.Evaluate([]float64{0, 0, 15, 20}, nil), 1e-15)

	rng := random.New(5)
	x := make([]float64, 4)
	for s := 0; s < fdSamples; s++ {
		randomPoint(rng, x, 1e3)
		v := p.Evaluate(x, nil)
		assert.Greater(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPushForceScales(t *testing.T) {
	m := twoRooms(t, 10, 10, 20, 20)
	x := []float64{0, 0, 15, 20}
	base := NewPushForce(m, 1, 2, PushAllPairs).Evaluate(x, nil)
	for _, k := range []float64{0.5, 3, 10, 1e3} {
		got := NewPushForce(m, k, 2, PushAllPairs).Evaluate(x, nil)
		assert.InDelta(t, k*base, got, 1e-12*k, "scale %g", k)
	}
}

func TestPushForcePairSelection(t *testing.T) {
	m := mixedModel(t)
	assert.Equal(t, 1, NewPushForce(m, 1, 1, PushDisconnected).Pairs())
	assert.Equal(t, 3, NewPushForce(m, 1, 1, PushAllPairs).Pairs())
}

func TestCorridorLengthMovableDoor(t *testing.T) {
	m := mixedModel(t)
	c := NewCorridorLength(m)

	// Rooms at the origin, door 3 shifted by (1, 2), door 4 by (0, -1).
	x := make([]float64, m.VariablesCount())
	x[6], x[7] = 1, 2
	x[9] = -1
	grad := make([]float64, len(x))
	got := c.Evaluate(x, grad)

	// Corridor 0: (1,2) - (-12,0) = (13,2). Corridor 1: (12,0) - (0,-1) = (12,1).
	assert.Equal(t, 13.0*13+2*2+12*12+1*1, got)
	// Room 0 and its movable door share the partial of corridor 0's first end.
	assert.Equal(t, grad[0], grad[6])
	assert.Equal(t, grad[1], grad[7])
	assert.Equal(t, 26.0, grad[0])
	// Room 1 takes the negated partial of corridor 0 and the partial of corridor 1.
	assert.Equal(t, -26.0+24.0, grad[2])
}

func TestAddGradRoutesToEveryOwner(t *testing.T) {
	grad := make([]float64, 8)
	addGrad(grad, 1.5, -2, 0, 3)
	addGrad(grad, 0.5, 1, 3)
	addGrad(grad, 9, 9)

	assert.Equal(t, []float64{1.5, -2, 0, 0, 0, 0, 2, -1}, grad)
}

func TestParsePushMode(t *testing.T) {
	for _, mode := range []PushMode{PushDisconnected, PushAllPairs} {
		got, err := ParsePushMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParsePushMode("nearest")
	assert.Error(t, err)
}

func TestConstructorsPanicOnInvalidParameters(t *testing.T) {
	m := twoRooms(t, 10, 10, 10, 10)
	assert.Panics(t, func() { NewPushForce(m, 0, 1, PushAllPairs) })
	assert.Panics(t, func() { NewPushForce(m, 1, -1, PushAllPairs) })
	assert.Panics(t, func() { NewRoomOverlap(m, 0) })
}

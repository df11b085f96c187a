package model

import "math"

// Position is a point in the dungeon plane. It is used both for raw
// coordinate read-outs and for derived absolute door positions.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Position) Sub(q Position) Position { return Position{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Position) Dist(q Position) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Interval is a closed range of admissible values for one variable.
// Infinite endpoints mean the variable is unbounded on that side.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Unbounded returns the interval [-Inf, +Inf].
func Unbounded() Interval {
	return Interval{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Symmetric returns [-r, r].
func Symmetric(r float64) Interval {
	return Interval{Lower: -r, Upper: r}
}

// Bounded reports whether either endpoint is finite.
func (i Interval) Bounded() bool {
	return !math.IsInf(i.Lower, -1) || !math.IsInf(i.Upper, 1)
}

// Contains reports whether v lies in the interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// Clamp returns v projected onto the interval.
func (i Interval) Clamp(v float64) float64 {
	return math.Min(math.Max(v, i.Lower), i.Upper)
}

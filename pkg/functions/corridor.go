package functions

import "github.com/K1ngNothing/dungeon-generation/pkg/model"

// CorridorLength sums the squared lengths of all corridors. Squared length
// keeps the term smooth at zero length.
type CorridorLength struct {
	terms []corridorTerm
}

type corridorTerm struct {
	door1, door2     model.Door
	owners1, owners2 []model.EntityID
}

// NewCorridorLength builds the corridor term for every corridor of m.
func NewCorridorLength(m *model.Model) *CorridorLength {
	corridors := m.Corridors()
	terms := make([]corridorTerm, len(corridors))
	for i, c := range corridors {
		terms[i] = corridorTerm{
			door1:   c.Door1,
			door2:   c.Door2,
			owners1: c.Door1.Owners(),
			owners2: c.Door2.Owners(),
		}
	}
	return &CorridorLength{terms: terms}
}

// Evaluate implements [Objective].
func (c *CorridorLength) Evaluate(x, grad []float64) float64 {
	f := 0.0
	for _, t := range c.terms {
		p1 := t.door1.Position(x)
		p2 := t.door2.Position(x)
		dx, dy := p1.X-p2.X, p1.Y-p2.Y
		f += dx*dx + dy*dy
		if grad != nil {
			addGrad(grad, 2*dx, 2*dy, t.owners1...)
			addGrad(grad, -2*dx, -2*dy, t.owners2...)
		}
	}
	return f
}

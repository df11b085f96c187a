package model

import (
	"math"
	"slices"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
)

// DefaultDoorBoundFraction limits a movable door's shift to this fraction of
// its room's width and height on each side of the center.
const DefaultDoorBoundFraction = 0.3

// Model is a dungeon: rooms, their doors and the corridors between them.
type Model struct {
	rooms         []*Room
	corridors     []Corridor
	movable       []*MovableDoor
	boundFraction float64
}

// Option configures a Model.
type Option func(*Model)

// WithDoorBoundFraction overrides [DefaultDoorBoundFraction].
func WithDoorBoundFraction(f float64) Option {
	return func(m *Model) { m.boundFraction = f }
}

// New validates and assembles a model.
//
// Rooms must be given in id order with ids 0..len(rooms)-1 and positive,
// finite dimensions. Movable doors must carry the ids that directly follow
// the rooms, without gaps or repeats. Every corridor must link doors that are
// attached to two different rooms of this model.
func New(rooms []*Room, corridors []Corridor, opts ...Option) (*Model, error) {
	m := &Model{
		rooms:         rooms,
		corridors:     corridors,
		boundFraction: DefaultDoorBoundFraction,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.boundFraction < 0 || m.boundFraction > 0.5 {
		return nil, errors.New(errors.ErrCodeInvalidModel, "door bound fraction %g outside [0, 0.5]", m.boundFraction)
	}

	for i, r := range rooms {
		if r == nil {
			return nil, errors.New(errors.ErrCodeInvalidModel, "room %d is nil", i)
		}
		if r.id != EntityID(i) {
			return nil, errors.New(errors.ErrCodeInvalidModel, "room at index %d has id %d", i, r.id)
		}
		if !(r.width > 0) || !(r.height > 0) || math.IsInf(r.width, 0) || math.IsInf(r.height, 0) {
			return nil, errors.New(errors.ErrCodeInvalidModel, "room %d has invalid size %gx%g", i, r.width, r.height)
		}
		for _, d := range r.doors {
			if d == nil {
				return nil, errors.New(errors.ErrCodeInvalidModel, "room %d has a nil door", i)
			}
			if d.ParentRoomID() != r.id {
				return nil, errors.New(errors.ErrCodeInvalidModel, "door of room %d claims parent %d", i, d.ParentRoomID())
			}
			if md, ok := d.(*MovableDoor); ok {
				m.movable = append(m.movable, md)
			}
		}
	}

	slices.SortFunc(m.movable, func(a, b *MovableDoor) int { return int(a.id - b.id) })
	for i, d := range m.movable {
		if want := EntityID(len(rooms) + i); d.id != want {
			return nil, errors.New(errors.ErrCodeInvalidModel, "movable door ids must be dense: got %d, want %d", d.id, want)
		}
	}

	for i, c := range corridors {
		if c.Door1 == nil || c.Door2 == nil {
			return nil, errors.New(errors.ErrCodeInvalidModel, "corridor %d has a nil door", i)
		}
		r1, r2 := c.Rooms()
		if !m.hasRoom(r1) || !m.hasRoom(r2) {
			return nil, errors.New(errors.ErrCodeInvalidModel, "corridor %d references unknown room", i)
		}
		if r1 == r2 {
			return nil, errors.New(errors.ErrCodeInvalidModel, "corridor %d connects room %d to itself", i, r1)
		}
		if rooms[r1].DoorIndex(c.Door1) < 0 || rooms[r2].DoorIndex(c.Door2) < 0 {
			return nil, errors.New(errors.ErrCodeInvalidModel, "corridor %d uses a door not attached to its room", i)
		}
	}
	return m, nil
}

func (m *Model) hasRoom(id EntityID) bool {
	return id >= 0 && int(id) < len(m.rooms)
}

// Rooms returns the rooms in id order.
func (m *Model) Rooms() []*Room { return m.rooms }

// Room returns the room with the given id.
func (m *Model) Room(id EntityID) *Room { return m.rooms[id] }

// Corridors returns all corridors.
func (m *Model) Corridors() []Corridor { return m.corridors }

// MovableDoors returns the movable doors in id order.
func (m *Model) MovableDoors() []*MovableDoor { return m.movable }

// DoorBoundFraction returns the fraction bounding movable door shifts.
func (m *Model) DoorBoundFraction() float64 { return m.boundFraction }

// ObjectCount returns the number of entities: rooms plus movable doors.
func (m *Model) ObjectCount() int { return len(m.rooms) + len(m.movable) }

// VariablesCount returns the length of the solver's variable vector.
func (m *Model) VariablesCount() int { return VariablesCount(m.ObjectCount()) }

// VariablesBounds returns one interval per variable. Room coordinates are
// unbounded; movable door coordinates stay within the bound fraction of the
// parent room's width and height.
func (m *Model) VariablesBounds() []Interval {
	bounds := make([]Interval, m.VariablesCount())
	for _, r := range m.rooms {
		xi, yi := IndicesOf(r.id)
		bounds[xi], bounds[yi] = Unbounded(), Unbounded()
	}
	for _, d := range m.movable {
		parent := m.rooms[d.parent]
		xi, yi := IndicesOf(d.id)
		bounds[xi] = Symmetric(m.boundFraction * parent.width)
		bounds[yi] = Symmetric(m.boundFraction * parent.height)
	}
	return bounds
}

// SetPositions assigns one position per entity id: room centers for rooms,
// shifts for movable doors.
func (m *Model) SetPositions(positions []Position) error {
	if len(positions) != m.ObjectCount() {
		return errors.New(errors.ErrCodeInternal, "got %d positions for %d objects", len(positions), m.ObjectCount())
	}
	for _, r := range m.rooms {
		r.SetCenter(positions[r.id])
	}
	for _, d := range m.movable {
		d.setShift(positions[d.id])
	}
	return nil
}

// Positions returns the current position of every entity, and false if any
// entity is still unplaced.
func (m *Model) Positions() ([]Position, bool) {
	out := make([]Position, m.ObjectCount())
	for _, r := range m.rooms {
		c, ok := r.Center()
		if !ok {
			return nil, false
		}
		out[r.id] = c
	}
	for _, d := range m.movable {
		s, ok := d.Shift()
		if !ok {
			return nil, false
		}
		out[d.id] = s
	}
	return out, true
}

// Solved reports whether every entity has a position.
func (m *Model) Solved() bool {
	_, ok := m.Positions()
	return ok
}

// Variables packs the current positions into a variable vector.
func (m *Model) Variables() ([]float64, bool) {
	positions, ok := m.Positions()
	if !ok {
		return nil, false
	}
	x := make([]float64, 0, 2*len(positions))
	for _, p := range positions {
		x = append(x, p.X, p.Y)
	}
	return x, true
}

// DoorPosition returns the absolute position of d once its room (and, for a
// movable door, its shift) is placed.
func (m *Model) DoorPosition(d Door) (Position, bool) {
	center, ok := m.rooms[d.ParentRoomID()].Center()
	if !ok {
		return Position{}, false
	}
	shift, ok := d.Shift()
	if !ok {
		return Position{}, false
	}
	return center.Add(shift), true
}

// Adjacency returns, for every room, the set of rooms it shares a corridor with.
func (m *Model) Adjacency() [][]bool {
	adj := make([][]bool, len(m.rooms))
	for i := range adj {
		adj[i] = make([]bool, len(m.rooms))
	}
	for _, c := range m.corridors {
		a, b := c.Rooms()
		adj[a][b] = true
		adj[b][a] = true
	}
	return adj
}

// Clone returns a deep copy. Corridors in the copy reference the copy's doors.
func (m *Model) Clone() *Model {
	doorMap := make(map[*MovableDoor]*MovableDoor, len(m.movable))
	remap := func(d Door) Door {
		if md, ok := d.(*MovableDoor); ok {
			if cp, ok := doorMap[md]; ok {
				return cp
			}
			cp := *md
			doorMap[md] = &cp
			return &cp
		}
		return d
	}

	rooms := make([]*Room, len(m.rooms))
	for i, r := range m.rooms {
		cp := *r
		cp.doors = make([]Door, len(r.doors))
		for j, d := range r.doors {
			cp.doors[j] = remap(d)
		}
		rooms[i] = &cp
	}
	corridors := make([]Corridor, len(m.corridors))
	for i, c := range m.corridors {
		corridors[i] = Corridor{Door1: remap(c.Door1), Door2: remap(c.Door2)}
	}
	movable := make([]*MovableDoor, len(m.movable))
	for i, d := range m.movable {
		movable[i] = doorMap[d]
	}
	return &Model{rooms: rooms, corridors: corridors, movable: movable, boundFraction: m.boundFraction}
}

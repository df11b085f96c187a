package model

// Room is a rectangular room. Its center is always an optimization variable.
type Room struct {
	id     EntityID
	width  float64
	height float64
	doors  []Door
	center Position
	placed bool
}

// NewRoom creates an unplaced room. Dimensions are validated by [New].
func NewRoom(id EntityID, width, height float64, doors ...Door) *Room {
	return &Room{id: id, width: width, height: height, doors: doors}
}

// NewPlacedRoom creates a room with a known center, as generators do for
// hand-laid inputs such as grids.
func NewPlacedRoom(id EntityID, width, height float64, center Position, doors ...Door) *Room {
	r := NewRoom(id, width, height, doors...)
	r.SetCenter(center)
	return r
}

func (r *Room) ID() EntityID       { return r.id }
func (r *Room) Width() float64     { return r.width }
func (r *Room) Height() float64    { return r.height }
func (r *Room) HalfWidth() float64 { return r.width / 2 }

// HalfHeight returns half the room height.
func (r *Room) HalfHeight() float64 { return r.height / 2 }

// Doors returns the room's doors in insertion order.
func (r *Room) Doors() []Door { return r.doors }

// Door returns the i-th door.
func (r *Room) Door(i int) Door { return r.doors[i] }

// AddDoor appends d and returns it, so generators can link it straight into a corridor.
func (r *Room) AddDoor(d Door) Door {
	r.doors = append(r.doors, d)
	return d
}

// Center returns the room center, and false while the room is unplaced.
func (r *Room) Center() (Position, bool) { return r.center, r.placed }

// SetCenter places the room.
func (r *Room) SetCenter(p Position) {
	r.center = p
	r.placed = true
}

// DoorIndex returns the position of d in the room's door list, or -1.
func (r *Room) DoorIndex(d Door) int {
	for i, own := range r.doors {
		if sameDoor(own, d) {
			return i
		}
	}
	return -1
}

func sameDoor(a, b Door) bool {
	switch a := a.(type) {
	case *MovableDoor:
		bm, ok := b.(*MovableDoor)
		return ok && a == bm
	case FixedDoor:
		bf, ok := b.(FixedDoor)
		return ok && a == bf
	}
	return false
}

var _ HasVariableID = (*Room)(nil)

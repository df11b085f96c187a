package model

// Door is a corridor endpoint attached to exactly one room.
//
// The two implementations are [FixedDoor] and [*MovableDoor]; the set is
// closed to this package.
type Door interface {
	// ParentRoomID returns the id of the room the door belongs to.
	ParentRoomID() EntityID

	// Position resolves the absolute door position from the variable buffer.
	Position(x []float64) Position

	// Shift returns the offset from the room center, and false while a
	// movable door has not been solved yet.
	Shift() (Position, bool)

	// Owners returns the entities whose variables move this door. The room
	// always comes first.
	Owners() []EntityID

	isDoor()
}

// FixedDoor sits at a constant offset from its room center and owns no variables.
type FixedDoor struct {
	parent EntityID
	shift  Position
}

// NewFixedDoor creates a door at shift relative to the center of room parent.
func NewFixedDoor(parent EntityID, shift Position) FixedDoor {
	return FixedDoor{parent: parent, shift: shift}
}

func (d FixedDoor) ParentRoomID() EntityID { return d.parent }

func (d FixedDoor) Position(x []float64) Position {
	return ValueOf(x, d.parent).Add(d.shift)
}

func (d FixedDoor) Shift() (Position, bool) { return d.shift, true }

func (d FixedDoor) Owners() []EntityID { return []EntityID{d.parent} }

func (FixedDoor) isDoor() {}

// MovableDoor owns a coordinate pair holding its shift from the room center.
// The solver keeps the shift inside [Model.VariablesBounds].
type MovableDoor struct {
	id     EntityID
	parent EntityID
	shift  Position
	solved bool
}

// NewMovableDoor creates a movable door with variable id id on room parent.
func NewMovableDoor(parent, id EntityID) *MovableDoor {
	return &MovableDoor{id: id, parent: parent}
}

// ID returns the door's entity id.
func (d *MovableDoor) ID() EntityID { return d.id }

func (d *MovableDoor) ParentRoomID() EntityID { return d.parent }

func (d *MovableDoor) Position(x []float64) Position {
	return ValueOf(x, d.parent).Add(ValueOf(x, d.id))
}

func (d *MovableDoor) Shift() (Position, bool) { return d.shift, d.solved }

func (d *MovableDoor) Owners() []EntityID { return []EntityID{d.parent, d.id} }

func (*MovableDoor) isDoor() {}

func (d *MovableDoor) setShift(p Position) {
	d.shift = p
	d.solved = true
}

var (
	_ Door          = FixedDoor{}
	_ Door          = (*MovableDoor)(nil)
	_ HasVariableID = (*MovableDoor)(nil)
)

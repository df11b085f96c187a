package model

// Corridor connects two doors that belong to different rooms. It is not a
// variable itself; it only contributes a corridor length cost.
type Corridor struct {
	Door1 Door
	Door2 Door
}

// NewCorridor links d1 and d2.
func NewCorridor(d1, d2 Door) Corridor {
	return Corridor{Door1: d1, Door2: d2}
}

// Rooms returns the parent room ids of both endpoints.
func (c Corridor) Rooms() (EntityID, EntityID) {
	return c.Door1.ParentRoomID(), c.Door2.ParentRoomID()
}

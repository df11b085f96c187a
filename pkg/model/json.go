package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
)

const (
	doorKindFixed   = "fixed"
	doorKindMovable = "movable"
)

type document struct {
	DoorBoundFraction float64       `json:"door_bound_fraction"`
	Rooms             []roomDoc     `json:"rooms"`
	Corridors         []corridorDoc `json:"corridors"`
}

type roomDoc struct {
	ID     EntityID  `json:"id"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Center *Position `json:"center,omitempty"`
	Doors  []doorDoc `json:"doors,omitempty"`
}

type doorDoc struct {
	Kind  string    `json:"kind"`
	ID    *EntityID `json:"id,omitempty"`
	Shift *Position `json:"shift,omitempty"`
}

type endpoint struct {
	Room EntityID `json:"room"`
	Door int      `json:"door"`
}

type corridorDoc struct {
	From endpoint `json:"from"`
	To   endpoint `json:"to"`
}

// Marshal encodes the full model, including any solved positions.
// Corridors are stored as (room, door index) pairs so that [Unmarshal] can
// relink them to the decoded doors.
func Marshal(m *Model) ([]byte, error) {
	doc := document{
		DoorBoundFraction: m.boundFraction,
		Rooms:             make([]roomDoc, len(m.rooms)),
		Corridors:         make([]corridorDoc, len(m.corridors)),
	}
	for i, r := range m.rooms {
		rd := roomDoc{ID: r.id, Width: r.width, Height: r.height}
		if c, ok := r.Center(); ok {
			rd.Center = &c
		}
		for _, d := range r.doors {
			rd.Doors = append(rd.Doors, encodeDoor(d))
		}
		doc.Rooms[i] = rd
	}
	for i, c := range m.corridors {
		r1, r2 := c.Rooms()
		doc.Corridors[i] = corridorDoc{
			From: endpoint{Room: r1, Door: m.rooms[r1].DoorIndex(c.Door1)},
			To:   endpoint{Room: r2, Door: m.rooms[r2].DoorIndex(c.Door2)},
		}
	}
	return json.Marshal(doc)
}

func encodeDoor(d Door) doorDoc {
	switch d := d.(type) {
	case *MovableDoor:
		id := d.id
		dd := doorDoc{Kind: doorKindMovable, ID: &id}
		if s, ok := d.Shift(); ok {
			dd.Shift = &s
		}
		return dd
	case FixedDoor:
		s := d.shift
		return doorDoc{Kind: doorKindFixed, Shift: &s}
	}
	panic(fmt.Sprintf("model: unknown door type %T", d))
}

// Unmarshal decodes a model written by [Marshal] and validates it with [New].
func Unmarshal(data []byte) (*Model, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "decode model")
	}

	rooms := make([]*Room, len(doc.Rooms))
	var movable []*MovableDoor
	var shifts []Position
	for i, rd := range doc.Rooms {
		r := NewRoom(rd.ID, rd.Width, rd.Height)
		if rd.Center != nil {
			r.SetCenter(*rd.Center)
		}
		for j, dd := range rd.Doors {
			switch dd.Kind {
			case doorKindFixed:
				if dd.Shift == nil {
					return nil, errors.New(errors.ErrCodeInvalidModel, "room %d door %d: fixed door without shift", i, j)
				}
				r.AddDoor(NewFixedDoor(rd.ID, *dd.Shift))
			case doorKindMovable:
				if dd.ID == nil {
					return nil, errors.New(errors.ErrCodeInvalidModel, "room %d door %d: movable door without id", i, j)
				}
				md := NewMovableDoor(rd.ID, *dd.ID)
				if dd.Shift != nil {
					movable = append(movable, md)
					shifts = append(shifts, *dd.Shift)
				}
				r.AddDoor(md)
			default:
				return nil, errors.New(errors.ErrCodeInvalidModel, "room %d door %d: unknown kind %q", i, j, dd.Kind)
			}
		}
		rooms[i] = r
	}
	for i, d := range movable {
		d.setShift(shifts[i])
	}

	corridors := make([]Corridor, len(doc.Corridors))
	for i, cd := range doc.Corridors {
		d1, err := lookupDoor(rooms, cd.From)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "corridor %d", i)
		}
		d2, err := lookupDoor(rooms, cd.To)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "corridor %d", i)
		}
		corridors[i] = NewCorridor(d1, d2)
	}

	var opts []Option
	if doc.DoorBoundFraction != 0 {
		opts = append(opts, WithDoorBoundFraction(doc.DoorBoundFraction))
	}
	return New(rooms, corridors, opts...)
}

func lookupDoor(rooms []*Room, e endpoint) (Door, error) {
	if e.Room < 0 || int(e.Room) >= len(rooms) {
		return nil, fmt.Errorf("room %d out of range", e.Room)
	}
	r := rooms[e.Room]
	if e.Door < 0 || e.Door >= len(r.doors) {
		return nil, fmt.Errorf("door %d out of range for room %d", e.Door, e.Room)
	}
	return r.doors[e.Door], nil
}

// WriteJSON encodes m as indented JSON and writes it to w.
func WriteJSON(m *Model, w io.Writer) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indent: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// ReadJSON decodes a model from r.
func ReadJSON(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Unmarshal(data)
}

// ImportJSON reads a model from the file at path.
func ImportJSON(path string) (*Model, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes m to a JSON file at path.
func ExportJSON(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

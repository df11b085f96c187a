package model

import (
	"bytes"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	r0 := NewRoom(0, 20, 20)
	r1 := NewRoom(1, 30, 10)
	fixed := r0.AddDoor(NewFixedDoor(0, Position{8, 0}))
	r0.AddDoor(NewFixedDoor(0, Position{-8, 0}))
	movable := r1.AddDoor(NewMovableDoor(1, 2))
	m, err := New([]*Room{r0, r1}, []Corridor{NewCorridor(fixed, movable)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.SetPositions([]Position{{0, 0}, {30, 5}, {2, -1}}); err != nil {
		t.Fatalf("SetPositions: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(m, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if got.ObjectCount() != m.ObjectCount() {
		t.Errorf("ObjectCount = %d, want %d", got.ObjectCount(), m.ObjectCount())
	}
	if len(got.Room(0).Doors()) != 2 {
		t.Errorf("room 0 doors = %d, want 2", len(got.Room(0).Doors()))
	}
	c := got.Corridors()[0]
	if _, ok := c.Door2.(*MovableDoor); !ok {
		t.Fatalf("corridor door2 = %T, want *MovableDoor", c.Door2)
	}
	if c.Door2 != Door(got.MovableDoors()[0]) {
		t.Error("decoded corridor is not linked to the decoded door")
	}
	p, ok := got.DoorPosition(c.Door2)
	if !ok || p != (Position{32, 4}) {
		t.Errorf("DoorPosition = %v, %v, want {32 4}", p, ok)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown kind", `{"rooms":[{"id":0,"width":1,"height":1,"doors":[{"kind":"secret"}]}]}`},
		{"bad corridor", `{"rooms":[{"id":0,"width":1,"height":1}],"corridors":[{"from":{"room":0,"door":0},"to":{"room":1,"door":0}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Error("Unmarshal succeeded, want error")
			}
		})
	}
}

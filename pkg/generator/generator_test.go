package generator

import (
	"bytes"
	"math"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
)

func intPtr(v int) *int { return &v }

func mustGenerate(t *testing.T, s Settings) *model.Model {
	t.Helper()
	m, err := Generate(s)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return m
}

func TestGrid(t *testing.T) {
	m := mustGenerate(t, Settings{Kind: KindGrid, GridSide: 2})

	if got := len(m.Rooms()); got != 4 {
		t.Fatalf("rooms = %d, want 4", got)
	}
	if !m.Solved() {
		t.Fatal("grid rooms should start placed")
	}
	c, _ := m.Room(0).Center()
	if want := (model.Position{X: 0, Y: 43.75}); c != want {
		t.Errorf("room 0 center = %v, want %v", c, want)
	}
	c, _ = m.Room(3).Center()
	if want := (model.Position{X: 43.75, Y: 0}); c != want {
		t.Errorf("room 3 center = %v, want %v", c, want)
	}

	wantPairs := [][2]model.EntityID{{0, 2}, {0, 1}, {1, 3}, {2, 3}}
	if got := len(m.Corridors()); got != len(wantPairs) {
		t.Fatalf("corridors = %d, want %d", got, len(wantPairs))
	}
	for i, c := range m.Corridors() {
		a, b := c.Rooms()
		if [2]model.EntityID{a, b} != wantPairs[i] {
			t.Errorf("corridor %d links %d-%d, want %v", i, a, b, wantPairs[i])
		}
	}

	// Room 0's bottom door faces room 2's top door across the gap.
	down, _ := m.DoorPosition(m.Room(0).Door(doorDown))
	up, _ := m.DoorPosition(m.Room(2).Door(doorUp))
	if down.X != up.X || math.Abs(down.Sub(up).Y-(43.75-2*14)) > 1e-9 {
		t.Errorf("door positions %v and %v are not aligned", down, up)
	}
}

func TestMovableDoorsDenseIDs(t *testing.T) {
	const n = 20
	m := mustGenerate(t, Settings{Kind: KindMovableDoors, RoomCount: n, AdditionalEdges: intPtr(3), Seed: 5})

	corridors := m.Corridors()
	if got, want := len(corridors), n-1+3; got != want {
		t.Fatalf("corridors = %d, want %d", got, want)
	}
	doors := m.MovableDoors()
	if got, want := len(doors), 2*len(corridors); got != want {
		t.Fatalf("movable doors = %d, want %d", got, want)
	}
	for i, d := range doors {
		if want := model.EntityID(n + i); d.ID() != want {
			t.Errorf("door %d has id %d, want %d", i, d.ID(), want)
		}
	}
	for i, c := range corridors {
		d1 := c.Door1.(*model.MovableDoor)
		d2 := c.Door2.(*model.MovableDoor)
		if want := model.EntityID(n + 2*i); d1.ID() != want || d2.ID() != want+1 {
			t.Errorf("corridor %d uses doors %d,%d, want %d,%d", i, d1.ID(), d2.ID(), want, want+1)
		}
		if d1.ParentRoomID() >= d2.ParentRoomID() {
			t.Errorf("corridor %d is not ordered by room id", i)
		}
	}
	if got, want := m.ObjectCount(), n+2*len(corridors); got != want {
		t.Errorf("ObjectCount() = %d, want %d", got, want)
	}
}

func TestTreeFixedDoors(t *testing.T) {
	const n = 40
	m := mustGenerate(t, Settings{Kind: KindTreeFixedDoors, RoomCount: n, Seed: 11})

	if got := len(m.Corridors()); got != n-1 {
		t.Fatalf("corridors = %d, want %d", got, n-1)
	}
	used := map[[2]int]bool{}
	g := NewGraph(n)
	for i, c := range m.Corridors() {
		a, b := c.Rooms()
		ia := m.Room(a).DoorIndex(c.Door1)
		ib := m.Room(b).DoorIndex(c.Door2)
		if ib != opposite(ia) {
			t.Errorf("corridor %d links sides %d and %d", i, ia, ib)
		}
		for _, k := range [][2]int{{int(a), ia}, {int(b), ib}} {
			if used[k] {
				t.Errorf("door %d of room %d used twice", k[1], k[0])
			}
			used[k] = true
		}
		g.AddEdge(int(a), int(b))
	}
	if !IsTree(g) {
		t.Error("corridors do not form a tree")
	}
}

func TestCenterDoors(t *testing.T) {
	m := mustGenerate(t, Settings{Kind: KindCenterDoors, RoomCount: 15, AdditionalEdges: intPtr(2)})

	if got := len(m.Corridors()); got != 16 {
		t.Errorf("corridors = %d, want 16", got)
	}
	for _, r := range m.Rooms() {
		if len(r.Doors()) != 1 {
			t.Fatalf("room %d has %d doors, want 1", r.ID(), len(r.Doors()))
		}
		if s, _ := r.Door(0).Shift(); s != (model.Position{}) {
			t.Errorf("room %d door shift = %v, want center", r.ID(), s)
		}
	}
	if len(m.MovableDoors()) != 0 {
		t.Error("center-door dungeons have no movable doors")
	}
}

func TestRoomSizes(t *testing.T) {
	t.Run("hub", func(t *testing.T) {
		m := mustGenerate(t, Settings{RoomCount: 10})
		if r := m.Room(0); r.Width() != 60 || r.Height() != 60 {
			t.Errorf("hub size = %gx%g, want 60x60", r.Width(), r.Height())
		}
	})
	t.Run("uniform", func(t *testing.T) {
		m := mustGenerate(t, Settings{RoomCount: 10, UniformRooms: true})
		for _, r := range m.Rooms() {
			if r.Width() != 20 || r.Height() != 20 {
				t.Errorf("room %d size = %gx%g, want 20x20", r.ID(), r.Width(), r.Height())
			}
		}
	})
	t.Run("from distribution", func(t *testing.T) {
		types := []RoomType{{Width: 10, Height: 5, Weight: 1}, {Width: 7, Height: 7, Weight: 0}}
		m := mustGenerate(t, Settings{RoomCount: 10, RoomTypes: types, DisableHub: true})
		for _, r := range m.Rooms() {
			if r.Width() != 10 || r.Height() != 5 {
				t.Errorf("room %d size = %gx%g, want 10x5", r.ID(), r.Width(), r.Height())
			}
		}
	})
}

func TestDeterminism(t *testing.T) {
	for kind := range ValidKinds {
		t.Run(string(kind), func(t *testing.T) {
			s := Settings{Kind: kind, RoomCount: 25, Seed: 99}
			a, err := model.Marshal(mustGenerate(t, s))
			if err != nil {
				t.Fatal(err)
			}
			b, err := model.Marshal(mustGenerate(t, s))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(a, b) {
				t.Error("same settings produced different models")
			}
		})
	}
}

func TestSeedChangesModel(t *testing.T) {
	a, _ := model.Marshal(mustGenerate(t, Settings{RoomCount: 50, Seed: 1}))
	b, _ := model.Marshal(mustGenerate(t, Settings{RoomCount: 50, Seed: 2}))
	if bytes.Equal(a, b) {
		t.Error("different seeds produced identical models")
	}
}

func TestSettingsDefaults(t *testing.T) {
	var s Settings
	s.SetDefaults()
	if s.Kind != KindMovableDoors || s.RoomCount != 50 || s.TreeStrategy != StrategyRandomChildCount {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if *s.AdditionalEdges != 5 || s.HubNeighbors != 5 {
		t.Errorf("AdditionalEdges = %d, HubNeighbors = %d, want 5 and 5", *s.AdditionalEdges, s.HubNeighbors)
	}
	if !s.Hub() {
		t.Error("hub should be enabled by default")
	}

	s.AdditionalEdges = intPtr(0)
	s.SetDefaults()
	if *s.AdditionalEdges != 0 {
		t.Error("explicit zero additional edges was overwritten")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
	}{
		{"unknown kind", Settings{Kind: "maze"}},
		{"unknown strategy", Settings{TreeStrategy: "bfs"}},
		{"negative rooms", Settings{RoomCount: -1}},
		{"negative grid side", Settings{Kind: KindGrid, GridSide: -2}},
		{"negative extra edges", Settings{AdditionalEdges: intPtr(-1)}},
		{"negative hub neighbors", Settings{HubNeighbors: -1}},
		{"bad room size", Settings{RoomTypes: []RoomType{{Width: 0, Height: 1, Weight: 1}}}},
		{"negative weight", Settings{RoomTypes: []RoomType{{Width: 1, Height: 1, Weight: -1}}}},
		{"zero weights", Settings{RoomTypes: []RoomType{{Width: 1, Height: 1}}}},
		{"bad hub size", Settings{HubRoomTypes: []RoomType{{Width: math.Inf(1), Height: 1, Weight: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.ValidateAndSetDefaults()
			if !errors.Is(err, errors.ErrCodeInvalidSettings) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, errors.ErrCodeInvalidSettings)
			}
		})
	}

	// A broken hub type does not matter once the hub is off.
	s := Settings{DisableHub: true, HubRoomTypes: []RoomType{{Width: -1, Height: 1, Weight: 1}}}
	if err := s.ValidateAndSetDefaults(); err != nil {
		t.Errorf("ValidateAndSetDefaults() = %v, want nil", err)
	}
}

package callbacks

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

// roomsModel returns n unconnected rooms of 20×10.
func roomsModel(t *testing.T, n int) *model.Model {
	t.Helper()
	rooms := make([]*model.Room, n)
	for i := range rooms {
		rooms[i] = model.NewRoom(model.EntityID(i), 20, 10)
	}
	m, err := model.New(rooms, nil)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}

func stacked(m *model.Model, x []float64) bool {
	rooms := m.Rooms()
	for i, r1 := range rooms {
		for _, r2 := range rooms[i+1:] {
			c1, c2 := model.ValueOf(x, r1.ID()), model.ValueOf(x, r2.ID())
			if math.Abs(c1.X-c2.X) < 0.001*(r1.HalfWidth()+r2.HalfWidth()) &&
				math.Abs(c1.Y-c2.Y) < 0.001*(r1.HalfHeight()+r2.HalfHeight()) {
				return true
			}
		}
	}
	return false
}

func TestRoomShakerSeparatesStackedRooms(t *testing.T) {
	m := roomsModel(t, 4)
	x := make([]float64, m.VariablesCount()) // every room at the origin

	s := NewRoomShaker(m, random.New(42))
	s.Shake(x)

	if stacked(m, x) {
		t.Errorf("rooms still stacked after Shake: %v", x)
	}
	if s.Moves() == 0 {
		t.Error("Moves() = 0, want at least one move")
	}
	for i := 0; i < len(x); i += 2 {
		// Three moves at most 1% of 20 or 10 each per pass, a few passes.
		if math.Abs(x[i]) > 1 || math.Abs(x[i+1]) > 1 {
			t.Errorf("room %d moved too far: (%v, %v)", i/2, x[i], x[i+1])
		}
	}
}

func TestRoomShakerDeterministic(t *testing.T) {
	m := roomsModel(t, 3)
	run := func() []float64 {
		x := make([]float64, m.VariablesCount())
		NewRoomShaker(m, random.New(7)).Shake(x)
		return x
	}
	a, b := run(), run()
	if !slices.Equal(a, b) {
		t.Errorf("same seed gave different shakes: %v vs %v", a, b)
	}
}

func TestRoomShakerLeavesSeparatedRooms(t *testing.T) {
	m := roomsModel(t, 3)
	x := []float64{0, 0, 0.5, 0, 100, 100}
	want := slices.Clone(x)

	s := NewRoomShaker(m, random.New(1))
	s.Shake(x)

	if !slices.Equal(x, want) {
		t.Errorf("Shake moved separated rooms: %v, want %v", x, want)
	}
	if s.Moves() != 0 {
		t.Errorf("Moves() = %d, want 0", s.Moves())
	}
}

type shakeRecorder struct {
	observability.NoopSolverHooks
	capped []bool
}

func (r *shakeRecorder) OnShake(moved, passes int, capped bool) {
	r.capped = append(r.capped, capped)
}

func TestRoomShakerPassLimit(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	rec := &shakeRecorder{}
	observability.SetSolverHooks(rec)

	m := roomsModel(t, 2)
	x := make([]float64, m.VariablesCount())
	NewRoomShaker(m, random.New(3), WithMaxPasses(1)).Shake(x)

	if len(rec.capped) != 1 || !rec.capped[0] {
		t.Errorf("OnShake capped flags = %v, want [true]", rec.capped)
	}

	rec.capped = nil
	y := []float64{0, 0, 50, 50}
	NewRoomShaker(m, random.New(3), WithMaxPasses(1)).Shake(y)
	if len(rec.capped) != 0 {
		t.Errorf("OnShake fired without moves: %v", rec.capped)
	}
}

func TestSnapshotWriter(t *testing.T) {
	r0 := model.NewRoom(0, 20, 10)
	r1 := model.NewRoom(1, 20, 10)
	d0 := r0.AddDoor(model.NewMovableDoor(0, 2))
	d1 := r1.AddDoor(model.NewFixedDoor(1, model.Position{X: -5}))
	m, err := model.New([]*model.Room{r0, r1}, []model.Corridor{model.NewCorridor(d0, d1)})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "snapshots")
	w, err := NewSnapshotWriter(m, dir)
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}

	w.Read([]float64{0, 0, 30, 0, 2, 1}, 1, 3)
	if err := w.Err(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if w.Written() != 1 {
		t.Errorf("Written() = %d, want 1", w.Written())
	}

	path := filepath.Join(dir, "iter_1_3.svg")
	if got := w.Path(1, 3); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(data), "<title>room 1</title>") {
		t.Errorf("snapshot missing room title:\n%s", data)
	}
	if m.Solved() {
		t.Error("snapshot placed the caller's model")
	}
}

func TestSnapshotWriterValidation(t *testing.T) {
	m := roomsModel(t, 1)
	tests := []struct {
		name string
		dir  string
		opts []SnapshotOption
	}{
		{"empty dir", "", nil},
		{"prefix with separator", t.TempDir(), []SnapshotOption{WithPrefix("a/b")}},
		{"hidden prefix", t.TempDir(), []SnapshotOption{WithPrefix(".iter")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshotWriter(m, tt.dir, tt.opts...)
			if !errors.Is(err, errors.ErrCodeInvalidPath) {
				t.Errorf("NewSnapshotWriter() error = %v, want INVALID_PATH", err)
			}
		})
	}
}

func TestProgressReporter(t *testing.T) {
	r0 := model.NewRoom(0, 20, 10)
	r1 := model.NewRoom(1, 20, 10)
	d0 := r0.AddDoor(model.NewFixedDoor(0, model.Position{}))
	d1 := r1.AddDoor(model.NewFixedDoor(1, model.Position{}))
	m, err := model.New([]*model.Room{r0, r1}, []model.Corridor{model.NewCorridor(d0, d1)})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}

	var got []Progress
	p := NewProgressReporter(m, 1, func(pr Progress) { got = append(got, pr) })
	p.Read([]float64{0, 0, 30, 4}, 2, 5)

	want := Progress{Run: 2, Iteration: 5, Corridors: 30*30 + 4*4, MaxOverlap: 0, Width: 50, Height: 14}
	if len(got) != 1 || got[0] != want {
		t.Errorf("progress = %+v, want %+v", got, want)
	}
}

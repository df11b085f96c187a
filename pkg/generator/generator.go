package generator

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

// Grid dungeons use square rooms of this size.
const gridRoomSize = 35.0

// Four-door rooms place a door at this fraction of the width or height away
// from the center on each side.
const doorOffset = 0.4

// Door indices of a four-door room.
const (
	doorDown = iota
	doorLeft
	doorUp
	doorRight
)

// Generator builds dungeon models from [Settings]. It is not safe for
// concurrent use.
type Generator struct {
	settings Settings
	rng      *random.RNG
	graphs   *GraphBuilder
	logger   *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for generation progress.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithRNG replaces the random source seeded from Settings.Seed.
func WithRNG(rng *random.RNG) Option {
	return func(g *Generator) { g.rng = rng }
}

// New validates s and returns a generator for it.
func New(s Settings, opts ...Option) (*Generator, error) {
	if err := s.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	g := &Generator{settings: s}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = random.New(s.Seed)
	}
	if g.logger == nil {
		g.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	g.graphs = NewGraphBuilder(g.rng, g.settings)
	return g, nil
}

// Generate builds a model of the given settings with a fresh generator.
func Generate(s Settings, opts ...Option) (*model.Model, error) {
	g, err := New(s, opts...)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}

// Settings returns the settings with defaults applied.
func (g *Generator) Settings() Settings { return g.settings }

// Generate builds a model of the configured kind.
func (g *Generator) Generate() (*model.Model, error) {
	var (
		m   *model.Model
		err error
	)
	switch g.settings.Kind {
	case KindGrid:
		m, err = g.Grid(g.settings.GridSide)
	case KindCenterDoors:
		m, err = g.CenterDoors(g.settings.RoomCount)
	case KindTreeFixedDoors:
		m, err = g.TreeFixedDoors(g.settings.RoomCount)
	case KindMovableDoors:
		m, err = g.MovableDoors(g.settings.RoomCount)
	default:
		return nil, errors.New(errors.ErrCodeInvalidSettings, "unsupported kind %q", g.settings.Kind)
	}
	if err != nil {
		return nil, err
	}
	g.logger.Debug("generated dungeon",
		"kind", g.settings.Kind,
		"rooms", len(m.Rooms()),
		"corridors", len(m.Corridors()),
		"movable_doors", len(m.MovableDoors()))
	return m, nil
}

// =============================================================================
// Dungeon Kinds
// =============================================================================

// Grid lays side×side equal rooms on a regular grid. Room ids run row by row
// from the top-left corner; each room links its bottom door to the top door
// of the room below and its right door to the left door of the room to the
// right. Rooms start placed at their grid cell.
func (g *Generator) Grid(side int) (*model.Model, error) {
	if side < 1 {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "grid side must be positive, got %d", side)
	}
	const (
		w, h  = gridRoomSize, gridRoomSize
		stepX = w + w/4
		stepY = h + h/4
	)
	id := func(row, col int) int { return row*side + col }

	rooms := make([]*model.Room, 0, side*side)
	for row := range side {
		for col := range side {
			center := model.Position{X: float64(col) * stepX, Y: float64(side-row-1) * stepY}
			rooms = append(rooms, fourDoorRoom(model.EntityID(id(row, col)), w, h, &center))
		}
	}

	corridors := make([]model.Corridor, 0, 2*side*(side-1))
	for row := range side {
		for col := range side {
			cur := rooms[id(row, col)]
			if row < side-1 {
				down := rooms[id(row+1, col)]
				corridors = append(corridors, model.NewCorridor(cur.Door(doorDown), down.Door(doorUp)))
			}
			if col < side-1 {
				right := rooms[id(row, col+1)]
				corridors = append(corridors, model.NewCorridor(cur.Door(doorRight), right.Door(doorLeft)))
			}
		}
	}
	return model.New(rooms, corridors)
}

// CenterDoors gives every room a single door at its center and adds one
// corridor per edge of a random connected graph.
func (g *Generator) CenterDoors(n int) (*model.Model, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "room count must be positive, got %d", n)
	}
	rooms := make([]*model.Room, n)
	for i := range rooms {
		w, h := g.roomSize(i)
		id := model.EntityID(i)
		rooms[i] = model.NewRoom(id, w, h, model.NewFixedDoor(id, model.Position{}))
	}

	graph := g.graphs.ConnectedGraph(n, *g.settings.AdditionalEdges)
	corridors := make([]model.Corridor, 0, graph.EdgeCount())
	for _, e := range graph.Edges() {
		corridors = append(corridors, model.NewCorridor(rooms[e[0]].Door(0), rooms[e[1]].Door(0)))
	}
	return model.New(rooms, corridors)
}

// TreeFixedDoors builds a random tree of four-door rooms. Room v > 0 links to
// a random earlier room through a pair of free opposite doors, so rooms only
// meet east-west or north-south and a non-overlapping layout always exists.
func (g *Generator) TreeFixedDoors(n int) (*model.Model, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "room count must be positive, got %d", n)
	}
	rooms := make([]*model.Room, n)
	for i := range rooms {
		w, h := g.roomSize(i)
		rooms[i] = fourDoorRoom(model.EntityID(i), w, h, nil)
	}

	free := make([][4]bool, n)
	for i := range free {
		free[i] = [4]bool{true, true, true, true}
	}
	corridors := make([]model.Corridor, 0, n-1)
	sides := make([]int, 0, 4)
	for v := 1; v < n; v++ {
		for {
			u := g.rng.UniformDiscrete(v - 1)
			sides = sides[:0]
			for side := range 4 {
				if free[v][side] && free[u][opposite(side)] {
					sides = append(sides, side)
				}
			}
			if len(sides) == 0 {
				continue
			}
			side := sides[g.rng.UniformDiscrete(len(sides)-1)]
			corridors = append(corridors, model.NewCorridor(rooms[v].Door(side), rooms[u].Door(opposite(side))))
			free[v][side] = false
			free[u][opposite(side)] = false
			break
		}
	}
	return model.New(rooms, corridors)
}

// MovableDoors adds a fresh movable door to both endpoint rooms of every edge
// of a random connected graph. Door ids follow the room ids in edge order.
func (g *Generator) MovableDoors(n int) (*model.Model, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "room count must be positive, got %d", n)
	}
	rooms := make([]*model.Room, n)
	for i := range rooms {
		w, h := g.roomSize(i)
		rooms[i] = model.NewRoom(model.EntityID(i), w, h)
	}

	graph := g.graphs.ConnectedGraph(n, *g.settings.AdditionalEdges)
	corridors := make([]model.Corridor, 0, graph.EdgeCount())
	nextID := model.EntityID(n)
	for _, e := range graph.Edges() {
		r1, r2 := rooms[e[0]], rooms[e[1]]
		d1 := r1.AddDoor(model.NewMovableDoor(r1.ID(), nextID))
		d2 := r2.AddDoor(model.NewMovableDoor(r2.ID(), nextID+1))
		nextID += 2
		corridors = append(corridors, model.NewCorridor(d1, d2))
	}
	return model.New(rooms, corridors)
}

// =============================================================================
// Rooms
// =============================================================================

// roomSize draws the size of room i. Uniform rooms take the first regular
// room type; otherwise room 0 is drawn from the hub types when the hub is on.
func (g *Generator) roomSize(i int) (w, h float64) {
	types := g.settings.RoomTypes
	switch {
	case g.settings.UniformRooms:
		return types[0].Width, types[0].Height
	case i == 0 && g.settings.Hub():
		types = g.settings.HubRoomTypes
	}
	t := types[g.rng.FromDistribution(weights(types))]
	return t.Width, t.Height
}

func weights(types []RoomType) []float64 {
	w := make([]float64, len(types))
	for i, t := range types {
		w[i] = t.Weight
	}
	return w
}

// fourDoorRoom returns a room with fixed doors in the order down, left, up,
// right. A nil center leaves the room unplaced.
func fourDoorRoom(id model.EntityID, w, h float64, center *model.Position) *model.Room {
	dx, dy := w*doorOffset, h*doorOffset
	doors := []model.Door{
		model.NewFixedDoor(id, model.Position{X: 0, Y: -dy}),
		model.NewFixedDoor(id, model.Position{X: -dx, Y: 0}),
		model.NewFixedDoor(id, model.Position{X: 0, Y: dy}),
		model.NewFixedDoor(id, model.Position{X: dx, Y: 0}),
	}
	if center == nil {
		return model.NewRoom(id, w, h, doors...)
	}
	return model.NewPlacedRoom(id, w, h, *center, doors...)
}

func opposite(side int) int { return (side + 2) % 4 }

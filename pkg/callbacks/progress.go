package callbacks

import (
	"math"

	"github.com/K1ngNothing/dungeon-generation/pkg/functions"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
)

// Progress summarises the layout after one outer iteration.
type Progress struct {
	Run        int
	Iteration  int
	Corridors  float64 // total squared corridor length
	MaxOverlap float64
	Width      float64 // bounding box of all rooms
	Height     float64
}

// ProgressReporter computes a [Progress] per outer iteration and hands it to
// a sink, such as a UI channel.
type ProgressReporter struct {
	rooms     []*model.Room
	corridors *functions.CorridorLength
	overlap   *functions.RoomOverlap
	sink      func(Progress)
}

// NewProgressReporter measures overlap with the given room bloating.
func NewProgressReporter(m *model.Model, bloating float64, sink func(Progress)) *ProgressReporter {
	return &ProgressReporter{
		rooms:     m.Rooms(),
		corridors: functions.NewCorridorLength(m),
		overlap:   functions.NewRoomOverlap(m, bloating),
		sink:      sink,
	}
}

// Read has the signature of a solver reader.
func (p *ProgressReporter) Read(x []float64, run, iteration int) {
	pr := Progress{
		Run:        run,
		Iteration:  iteration,
		Corridors:  p.corridors.Evaluate(x, nil),
		MaxOverlap: p.overlap.Max(x),
	}
	if len(p.rooms) > 0 {
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, r := range p.rooms {
			c := model.ValueOf(x, r.ID())
			minX = math.Min(minX, c.X-r.HalfWidth())
			minY = math.Min(minY, c.Y-r.HalfHeight())
			maxX = math.Max(maxX, c.X+r.HalfWidth())
			maxY = math.Max(maxY, c.Y+r.HalfHeight())
		}
		pr.Width, pr.Height = maxX-minX, maxY-minY
	}
	p.sink(pr)
}

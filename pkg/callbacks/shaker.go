package callbacks

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

const (
	// DefaultMaxPasses caps the scans of one Shake call.
	DefaultMaxPasses = 100

	// Two rooms count as stacked when both axis separations are below this
	// fraction of their summed half-extents.
	stackedFraction = 0.001

	// A stacked room moves by at most this fraction of its own size per axis.
	shakeFraction = 0.01
)

// RoomShaker separates stacked rooms by random shifts.
type RoomShaker struct {
	rooms     []*model.Room
	rng       *random.RNG
	maxPasses int
	logger    *log.Logger

	moves int
}

// ShakerOption configures a RoomShaker.
type ShakerOption func(*RoomShaker)

// WithMaxPasses overrides [DefaultMaxPasses].
func WithMaxPasses(n int) ShakerOption {
	return func(s *RoomShaker) {
		if n > 0 {
			s.maxPasses = n
		}
	}
}

// WithShakerLogger sets the logger that receives pass-limit warnings.
func WithShakerLogger(l *log.Logger) ShakerOption {
	return func(s *RoomShaker) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRoomShaker creates a shaker for the rooms of m drawing shifts from rng.
func NewRoomShaker(m *model.Model, rng *random.RNG, opts ...ShakerOption) *RoomShaker {
	s := &RoomShaker{
		rooms:     m.Rooms(),
		rng:       rng,
		maxPasses: DefaultMaxPasses,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shake scans all ordered room pairs and moves the first room of every
// stacked pair, repeating until a scan moves nothing or the pass limit is
// reached. It has the signature of a solver modifier.
func (s *RoomShaker) Shake(x []float64) {
	moved, passes := 0, 0
	for passes < s.maxPasses {
		passes++
		n := s.pass(x)
		moved += n
		if n == 0 {
			break
		}
		if passes == s.maxPasses {
			s.logger.Warn("room shaker hit its pass limit", "passes", passes, "moved", moved)
			observability.Solver().OnShake(moved, passes, true)
			s.moves += moved
			return
		}
	}
	if moved > 0 {
		s.logger.Debug("shook stacked rooms", "moved", moved, "passes", passes)
		observability.Solver().OnShake(moved, passes, false)
	}
	s.moves += moved
}

func (s *RoomShaker) pass(x []float64) int {
	moved := 0
	for i, r1 := range s.rooms {
		for j, r2 := range s.rooms {
			if i == j {
				continue
			}
			c1 := model.ValueOf(x, r1.ID())
			c2 := model.ValueOf(x, r2.ID())
			sumHW := r1.HalfWidth() + r2.HalfWidth()
			sumHH := r1.HalfHeight() + r2.HalfHeight()
			if math.Abs(c1.X-c2.X) >= stackedFraction*sumHW || math.Abs(c1.Y-c2.Y) >= stackedFraction*sumHH {
				continue
			}
			bx := r1.Width() * shakeFraction
			by := r1.Height() * shakeFraction
			xi, yi := model.IndicesOf(r1.ID())
			x[xi] += s.rng.UniformRange(-bx, bx)
			x[yi] += s.rng.UniformRange(-by, by)
			moved++
		}
	}
	return moved
}

// Moves returns the total number of room moves over all Shake calls.
func (s *RoomShaker) Moves() int { return s.moves }

package generator

import (
	"math"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/random"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRoomCount is the number of rooms in a generated dungeon.
	DefaultRoomCount = 50

	// DefaultGridSide is the side of a grid dungeon.
	DefaultGridSide = 5

	// DefaultAdditionalEdgeRatio is the share of the room count added as
	// extra corridors on top of the spanning tree.
	DefaultAdditionalEdgeRatio = 0.1

	// DefaultHubNeighborRatio is the share of the room count attached
	// directly to the hub.
	DefaultHubNeighborRatio = 0.1

	// DefaultKind is the dungeon kind used when none is configured.
	DefaultKind = KindMovableDoors

	// DefaultTreeStrategy is the spanning tree strategy used when none is configured.
	DefaultTreeStrategy = StrategyRandomChildCount
)

// Kind selects how a dungeon model is generated.
type Kind string

const (
	KindGrid           Kind = "grid"
	KindCenterDoors    Kind = "center-doors"
	KindTreeFixedDoors Kind = "tree-fixed-doors"
	KindMovableDoors   Kind = "movable-doors"
)

// ValidKinds is the set of supported dungeon kinds.
var ValidKinds = map[Kind]bool{
	KindGrid:           true,
	KindCenterDoors:    true,
	KindTreeFixedDoors: true,
	KindMovableDoors:   true,
}

// TreeStrategy selects how the spanning tree of the room graph is built.
type TreeStrategy string

const (
	// StrategyRandomPredecessors links every vertex to a uniformly chosen
	// earlier vertex.
	StrategyRandomPredecessors TreeStrategy = "random-predecessors"

	// StrategyRandomChildCount hands out children in breadth-first order,
	// which keeps vertex degrees small.
	StrategyRandomChildCount TreeStrategy = "random-child-count"
)

// ValidTreeStrategies is the set of supported tree strategies.
var ValidTreeStrategies = map[TreeStrategy]bool{
	StrategyRandomPredecessors: true,
	StrategyRandomChildCount:   true,
}

// RoomType is a room size together with its sampling weight.
type RoomType struct {
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
	Weight float64 `json:"weight" toml:"weight" yaml:"weight"`
}

// DefaultRoomTypes returns the regular room size distribution.
func DefaultRoomTypes() []RoomType {
	return []RoomType{
		{Width: 20, Height: 20, Weight: 1},
		{Width: 30, Height: 30, Weight: 0.5},
		{Width: 20, Height: 40, Weight: 0.3},
		{Width: 40, Height: 20, Weight: 0.3},
		{Width: 40, Height: 40, Weight: 0.25},
	}
}

// DefaultHubRoomTypes returns the size distribution of the hub room.
func DefaultHubRoomTypes() []RoomType {
	return []RoomType{{Width: 60, Height: 60, Weight: 1}}
}

// =============================================================================
// Settings
// =============================================================================

// Settings configures dungeon generation. The zero value is usable after
// SetDefaults. It supports JSON, TOML and YAML serialization.
type Settings struct {
	Kind      Kind `json:"kind,omitempty" toml:"kind" yaml:"kind"`
	RoomCount int  `json:"room_count,omitempty" toml:"room_count" yaml:"room_count"`
	GridSide  int  `json:"grid_side,omitempty" toml:"grid_side" yaml:"grid_side"`

	// AdditionalEdges is the number of extra corridors added to the spanning
	// tree. Nil means DefaultAdditionalEdgeRatio of the room count.
	AdditionalEdges *int `json:"additional_edges,omitempty" toml:"additional_edges" yaml:"additional_edges"`

	RoomTypes    []RoomType `json:"room_types,omitempty" toml:"room_types" yaml:"room_types"`
	HubRoomTypes []RoomType `json:"hub_room_types,omitempty" toml:"hub_room_types" yaml:"hub_room_types"`

	// DisableHub turns room 0 into a regular room.
	DisableHub bool `json:"disable_hub,omitempty" toml:"disable_hub" yaml:"disable_hub"`

	// HubNeighbors is the number of rooms attached to the hub by the
	// random-child-count strategy. Zero means DefaultHubNeighborRatio of
	// the room count.
	HubNeighbors int `json:"hub_neighbors,omitempty" toml:"hub_neighbors" yaml:"hub_neighbors"`

	// UniformRooms makes every room the size of the first regular room type.
	UniformRooms bool `json:"uniform_rooms,omitempty" toml:"uniform_rooms" yaml:"uniform_rooms"`

	TreeStrategy TreeStrategy `json:"tree_strategy,omitempty" toml:"tree_strategy" yaml:"tree_strategy"`
	Seed         uint64       `json:"seed,omitempty" toml:"seed" yaml:"seed"`
}

// SetDefaults fills zero fields with their defaults. It is idempotent.
func (s *Settings) SetDefaults() {
	if s.Kind == "" {
		s.Kind = DefaultKind
	}
	if s.RoomCount == 0 {
		s.RoomCount = DefaultRoomCount
	}
	if s.GridSide == 0 {
		s.GridSide = DefaultGridSide
	}
	if s.AdditionalEdges == nil {
		extra := int(float64(s.RoomCount) * DefaultAdditionalEdgeRatio)
		s.AdditionalEdges = &extra
	}
	if len(s.RoomTypes) == 0 {
		s.RoomTypes = DefaultRoomTypes()
	}
	if len(s.HubRoomTypes) == 0 {
		s.HubRoomTypes = DefaultHubRoomTypes()
	}
	if s.HubNeighbors == 0 {
		s.HubNeighbors = int(float64(s.RoomCount) * DefaultHubNeighborRatio)
	}
	if s.TreeStrategy == "" {
		s.TreeStrategy = DefaultTreeStrategy
	}
	if s.Seed == 0 {
		s.Seed = random.DefaultSeed
	}
}

// Validate checks the settings after SetDefaults.
func (s *Settings) Validate() error {
	if !ValidKinds[s.Kind] {
		return errors.New(errors.ErrCodeInvalidSettings,
			"invalid kind: %q (must be one of: grid, center-doors, tree-fixed-doors, movable-doors)", s.Kind)
	}
	if !ValidTreeStrategies[s.TreeStrategy] {
		return errors.New(errors.ErrCodeInvalidSettings,
			"invalid tree_strategy: %q (must be one of: random-predecessors, random-child-count)", s.TreeStrategy)
	}
	if s.Kind == KindGrid {
		if s.GridSide < 1 {
			return errors.New(errors.ErrCodeInvalidSettings, "grid side must be positive, got %d", s.GridSide)
		}
		return nil
	}
	if s.RoomCount < 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "room count must be positive, got %d", s.RoomCount)
	}
	if s.AdditionalEdges != nil && *s.AdditionalEdges < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "additional edges must not be negative, got %d", *s.AdditionalEdges)
	}
	if s.HubNeighbors < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "hub neighbors must not be negative, got %d", s.HubNeighbors)
	}
	if err := validateRoomTypes("room_types", s.RoomTypes); err != nil {
		return err
	}
	if !s.DisableHub {
		return validateRoomTypes("hub_room_types", s.HubRoomTypes)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates in one step.
func (s *Settings) ValidateAndSetDefaults() error {
	s.SetDefaults()
	return s.Validate()
}

// Hub reports whether room 0 is a hub. Uniform rooms keep the hub's
// connectivity but not its size.
func (s *Settings) Hub() bool {
	return !s.DisableHub
}

// TotalRooms returns the number of rooms the settings produce.
func (s *Settings) TotalRooms() int {
	if s.Kind == KindGrid {
		return s.GridSide * s.GridSide
	}
	return s.RoomCount
}

func validateRoomTypes(field string, types []RoomType) error {
	if len(types) == 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "%s must not be empty", field)
	}
	total := 0.0
	for i, t := range types {
		if !(t.Width > 0) || !(t.Height > 0) || math.IsInf(t.Width, 0) || math.IsInf(t.Height, 0) {
			return errors.New(errors.ErrCodeInvalidSettings, "%s[%d] has invalid size %gx%g", field, i, t.Width, t.Height)
		}
		if t.Weight < 0 || math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
			return errors.New(errors.ErrCodeInvalidSettings, "%s[%d] has invalid weight %g", field, i, t.Weight)
		}
		total += t.Weight
	}
	if total <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "%s weights must have a positive sum", field)
	}
	return nil
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer generates cache keys for each pipeline stage.
//
// Keys of later stages embed the hash of the previous stage's output, so
// changing the generator settings invalidates layouts and artifacts without
// any explicit bookkeeping.
type Keyer interface {
	// ModelKey identifies a generated model.
	ModelKey(opts ModelKeyOpts) string

	// LayoutKey identifies a solved layout of the model with modelHash.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output of the layout with layoutHash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// ResultKey identifies a stored pipeline result by its run id.
	ResultKey(id string) string
}

// ModelKeyOpts lists every setting that changes a generated model.
type ModelKeyOpts struct {
	Kind            string
	RoomCount       int
	GridSide        int
	AdditionalEdges int
	RoomTypes       [][3]float64 // width, height, weight
	HubRoomTypes    [][3]float64
	Hub             bool
	HubNeighbors    int
	UniformRooms    bool
	TreeStrategy    string
	Seed            uint64
}

// LayoutKeyOpts lists every solver setting that changes a layout.
type LayoutKeyOpts struct {
	RoomBloating        float64
	PushForce           bool
	PushScale           float64
	PushRange           float64
	PushMode            string
	Reruns              int
	MultiplierDecay     float64
	MaxIterations       int
	GradientTolerance   float64
	ConstraintTolerance float64
	InitialPenalty      float64
	PenaltyGrowth       float64
	ShakerPasses        int
	Seed                uint64
}

// ArtifactKeyOpts lists every render setting that changes an artifact.
type ArtifactKeyOpts struct {
	Format        string
	Run           int
	Padding       float64
	DoorSize      float64
	CorridorWidth float64
	HubColor      string
}

// DefaultKeyer hashes stage options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ModelKey returns "model:<hash>".
func (DefaultKeyer) ModelKey(opts ModelKeyOpts) string {
	return hashKey("model", opts)
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// ResultKey returns "result:<id>". Run ids are random, so they need no hashing.
func (DefaultKeyer) ResultKey(id string) string {
	return "result:" + id
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data. Stage outputs are hashed with it
// before they feed the key of the next stage.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "kind:<sha256 of the JSON-encoded parts>". Option structs
// encode their fields in declaration order, so equal options give equal keys.
func hashKey(kind string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		// Key opts hold only plain values; a failure here is a programming error.
		panic("cache: encode key parts: " + err.Error())
	}
	return kind + ":" + Hash(data)
}

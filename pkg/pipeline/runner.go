package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/K1ngNothing/dungeon-generation/pkg/cache"
	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeModel    = "model"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
	keyTypeResult   = "result"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results unless asked to. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → solve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()

	result := &Result{
		ID:        uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Generate
	kind := string(opts.Dungeon.Kind)
	hooks.OnGenerateStart(ctx, kind, opts.Dungeon.TotalRooms())
	generateStart := time.Now()
	m, generateHit, err := r.GenerateWithCacheInfo(ctx, opts)
	result.Stats.GenerateTime = time.Since(generateStart)
	hooks.OnGenerateComplete(ctx, kind, opts.Dungeon.TotalRooms(), result.Stats.GenerateTime, err)
	if err != nil {
		return nil, err
	}
	result.CacheInfo.GenerateHit = generateHit
	result.Stats.RoomCount = len(m.Rooms())
	result.Stats.CorridorCount = len(m.Corridors())
	result.Stats.VariableCount = m.VariablesCount()
	if data, err := model.Marshal(m); err == nil {
		result.ModelHash = cache.Hash(data)
	}

	r.Logger.Info("generated dungeon",
		"kind", kind,
		"rooms", result.Stats.RoomCount,
		"corridors", result.Stats.CorridorCount,
		"duration", result.Stats.GenerateTime)

	// Stage 2: Solve
	hooks.OnSolveStart(ctx, result.Stats.RoomCount, result.Stats.VariableCount)
	solveStart := time.Now()
	layout, solveHit, err := r.SolveWithCacheInfo(ctx, m, opts)
	result.Stats.SolveTime = time.Since(solveStart)
	hooks.OnSolveComplete(ctx, layout.Reason(), result.Stats.SolveTime, err)
	if err != nil {
		return nil, err
	}
	if err := layout.Apply(m); err != nil {
		return nil, err
	}
	result.Model = m
	result.Layout = layout
	result.CacheInfo.SolveHit = solveHit

	final := layout.Final()
	r.Logger.Info("solved layout",
		"reason", layout.Reason(),
		"runs", len(layout.Runs),
		"max_overlap", final.MaxOverlap,
		"duration", result.Stats.SolveTime)

	// Stage 3: Render
	hooks.OnRenderStart(ctx, opts.Formats)
	renderStart := time.Now()
	artifacts, runSVGs, renderHit, err := r.RenderWithCacheInfo(ctx, m, layout, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.RunSVGs = runSVGs
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.FormatList(),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo builds the model with caching and returns cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*model.Model, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ModelKey(opts.ModelKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit := r.lookup(ctx, keyTypeModel, cacheKey); hit {
			if m, err := model.Unmarshal(data); err == nil {
				return m, true, nil
			}
			// If deserialization fails, fall through to regenerate
		}
	}

	m, err := Generate(opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := model.Marshal(m); err == nil {
		r.store(ctx, keyTypeModel, cacheKey, data, cache.TTLModel)
	}
	return m, false, nil
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*model.Model, error) {
	m, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return m, err
}

// SolveWithCacheInfo solves m with caching and returns cache hit info. On a
// miss, m holds the final layout afterwards; on a hit it is left unchanged.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, m *model.Model, opts Options) (Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSolve(); err != nil {
		return Layout{}, false, err
	}

	modelData, err := model.Marshal(m)
	if err != nil {
		return Layout{}, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize model for cache key")
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(modelData), opts.LayoutKeyOpts())

	// Readers must see the iterations, so they force a fresh solve.
	useCache := !opts.Refresh && opts.SnapshotDir == "" && opts.Progress == nil
	if useCache {
		if data, hit := r.lookup(ctx, keyTypeLayout, cacheKey); hit {
			if layout, err := UnmarshalLayout(data); err == nil && len(layout.Final().Variables) == m.VariablesCount() {
				return layout, true, nil
			}
		}
	}

	layout, err := Solve(ctx, m, opts)
	if err != nil {
		return Layout{}, false, err
	}

	if data, err := MarshalLayout(layout); err == nil {
		r.store(ctx, keyTypeLayout, cacheKey, data, cache.TTLLayout)
	}
	return layout, false, nil
}

// Solve is a convenience wrapper that calls SolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, m *model.Model, opts Options) (Layout, error) {
	layout, _, err := r.SolveWithCacheInfo(ctx, m, opts)
	return layout, err
}

// RenderWithCacheInfo generates the final artifacts and the per-run SVGs
// with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *model.Model, layout Layout, opts Options) (map[string][]byte, [][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, nil, false, err
	}

	// Compute cache key from the model and every pass
	modelData, err := model.Marshal(m)
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize model for cache key")
	}
	layoutData, err := MarshalLayout(layout)
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	cacheKeyHash := cache.Hash(append(modelData, layoutData...))
	finalRun := len(layout.Runs) - 1

	// Try to get everything from cache
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format, finalRun))
		data, hit := r.lookup(ctx, keyTypeArtifact, key)
		if !hit {
			allCached = false
			break
		}
		artifacts[format] = data
	}
	runSVGs := make([][]byte, len(layout.Runs))
	for run := range layout.Runs {
		if !allCached {
			break
		}
		key := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(FormatSVG, run))
		data, hit := r.lookup(ctx, keyTypeArtifact, key)
		if !hit {
			allCached = false
			break
		}
		runSVGs[run] = data
	}
	if allCached {
		return artifacts, runSVGs, true, nil
	}

	rendered, err := Render(ctx, m, layout, opts)
	if err != nil {
		return nil, nil, false, err
	}
	runSVGs, err = RenderRuns(m, layout, opts)
	if err != nil {
		return nil, nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format, finalRun))
		r.store(ctx, keyTypeArtifact, key, data, cache.TTLArtifact)
	}
	for run, data := range runSVGs {
		key := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(FormatSVG, run))
		r.store(ctx, keyTypeArtifact, key, data, cache.TTLArtifact)
	}
	return rendered, runSVGs, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// returns only the final artifacts.
func (r *Runner) Render(ctx context.Context, m *model.Model, layout Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, _, err := r.RenderWithCacheInfo(ctx, m, layout, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup reads a cache entry, treating backend errors as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// store writes a cache entry. Failures only cost a future recomputation.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

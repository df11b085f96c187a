package pipeline

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/K1ngNothing/dungeon-generation/pkg/cache"
	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
)

// Summary is the JSON description of a stored result.
type Summary struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Seed           uint64    `json:"seed"`
	Rooms          int       `json:"rooms"`
	Corridors      int       `json:"corridors"`
	Reason         string    `json:"reason"`
	Runs           int       `json:"runs"`
	MaxOverlap     float64   `json:"max_overlap"`
	CorridorLength float64   `json:"corridor_length"`
	Formats        []string  `json:"formats"`
	Cache          CacheInfo `json:"cache"`
	Timings        Timings   `json:"timings_ms"`
}

// Timings holds stage durations in milliseconds.
type Timings struct {
	Generate int64 `json:"generate"`
	Solve    int64 `json:"solve"`
	Render   int64 `json:"render"`
}

// Summary describes r for API responses and stored results.
func (r *Result) Summary(opts Options) Summary {
	formats := make([]string, 0, len(r.Artifacts))
	for f := range r.Artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	s := Summary{
		ID:        r.ID,
		Kind:      string(opts.Dungeon.Kind),
		Seed:      opts.Dungeon.Seed,
		Rooms:     r.Stats.RoomCount,
		Corridors: r.Stats.CorridorCount,
		Reason:    r.Layout.Reason(),
		Runs:      len(r.Layout.Runs),
		Formats:   formats,
		Cache:     r.CacheInfo,
		Timings: Timings{
			Generate: r.Stats.GenerateTime.Milliseconds(),
			Solve:    r.Stats.SolveTime.Milliseconds(),
			Render:   r.Stats.RenderTime.Milliseconds(),
		},
	}
	if len(r.Layout.Runs) > 0 {
		final := r.Layout.Final()
		s.MaxOverlap = final.MaxOverlap
		s.CorridorLength = final.CorridorLength
	}
	return s
}

// StoreResult saves the summary and every artifact of r under its id so
// they can be fetched later with [Runner.LoadSummary] and
// [Runner.LoadArtifact].
func (r *Runner) StoreResult(ctx context.Context, result *Result, opts Options) (Summary, error) {
	summary := result.Summary(opts)
	data, err := json.Marshal(summary)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeInternal, err, "encode summary")
	}
	base := r.Keyer.ResultKey(result.ID)
	if err := r.Cache.Set(ctx, base, data, cache.TTLResult); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeInternal, err, "store result %s", result.ID)
	}
	for format, artifact := range result.Artifacts {
		if err := r.Cache.Set(ctx, base+"/"+format, artifact, cache.TTLResult); err != nil {
			return Summary{}, errors.Wrap(errors.ErrCodeInternal, err, "store %s of result %s", format, result.ID)
		}
	}
	observability.Cache().OnCacheSet(ctx, keyTypeResult, len(data))
	return summary, nil
}

// LoadSummary returns the summary stored for id.
func (r *Runner) LoadSummary(ctx context.Context, id string) (Summary, error) {
	data, err := r.loadResult(ctx, id, "")
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeInternal, err, "decode summary of %s", id)
	}
	return s, nil
}

// LoadArtifact returns the stored artifact of result id in format.
func (r *Runner) LoadArtifact(ctx context.Context, id, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	return r.loadResult(ctx, id, format)
}

func (r *Runner) loadResult(ctx context.Context, id, format string) ([]byte, error) {
	key := r.Keyer.ResultKey(id)
	if format != "" {
		key += "/" + format
	}
	data, hit := r.lookup(ctx, keyTypeResult, key)
	if !hit {
		if format != "" {
			return nil, errors.New(errors.ErrCodeNotFound, "dungeon %s has no %s output", id, format)
		}
		return nil, errors.New(errors.ErrCodeNotFound, "dungeon %s not found", id)
	}
	return data, nil
}

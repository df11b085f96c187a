package cache

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the backend described by target:
//
//	""  or "none"                       NullCache
//	"redis://…" or "rediss://…"          RedisCache
//	"mongodb://…" or "mongodb+srv://…"   MongoCache (default database and collection)
//	"file://<dir>" or any other string   FileCache rooted at that directory
func Open(ctx context.Context, target string) (Cache, error) {
	switch {
	case target == "" || target == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(target, "redis://"), strings.HasPrefix(target, "rediss://"):
		return unlessErr(NewRedisCache(ctx, target))
	case strings.HasPrefix(target, "mongodb://"), strings.HasPrefix(target, "mongodb+srv://"):
		return unlessErr(NewMongoCache(ctx, target, "", ""))
	case strings.HasPrefix(target, "file://"):
		dir := strings.TrimPrefix(target, "file://")
		if dir == "" {
			return nil, fmt.Errorf("cache target %q has no directory", target)
		}
		return unlessErr(NewFileCache(dir))
	case strings.Contains(target, "://"):
		return nil, fmt.Errorf("unsupported cache target %q", target)
	default:
		return unlessErr(NewFileCache(target))
	}
}

// unlessErr avoids wrapping a nil backend pointer in a non-nil interface.
func unlessErr[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

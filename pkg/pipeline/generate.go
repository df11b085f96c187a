package pipeline

import (
	"github.com/K1ngNothing/dungeon-generation/pkg/generator"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
)

// Generate builds the dungeon model described by opts.Dungeon without
// touching any cache.
func Generate(opts Options) (*model.Model, error) {
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, err
	}
	return generator.Generate(opts.Dungeon, generator.WithLogger(opts.Logger))
}

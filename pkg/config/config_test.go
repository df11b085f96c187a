package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/generator"
)

const tomlConfig = `
cache = "redis://localhost:6379/0"
output = "out"
log_level = "debug"

[server]
addr = ":9000"

[pipeline]
reruns = 2
push_mode = "all-pairs"
formats = ["svg", "json"]

[pipeline.dungeon]
kind = "tree-fixed-doors"
room_count = 30
additional_edges = 0
tree_strategy = "random-predecessors"
seed = 7

[[pipeline.dungeon.room_types]]
width = 25
height = 25
weight = 1
`

const yamlConfig = `
cache: none
pipeline:
  no_push_force: true
  room_bloating: 2
  dungeon:
    kind: grid
    grid_side: 3
    disable_hub: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "dungeongen.toml", tomlConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Cache != "redis://localhost:6379/0" {
		t.Errorf("Cache = %q", cfg.Cache)
	}
	if cfg.Output != "out" || cfg.LogLevel != "debug" {
		t.Errorf("Output/LogLevel = %q/%q", cfg.Output, cfg.LogLevel)
	}
	if cfg.Addr() != ":9000" {
		t.Errorf("Addr() = %q, want :9000", cfg.Addr())
	}

	p := cfg.Pipeline
	if p.Reruns != 2 || p.PushMode != "all-pairs" {
		t.Errorf("reruns/push_mode = %d/%q", p.Reruns, p.PushMode)
	}
	if len(p.Formats) != 2 || p.Formats[1] != "json" {
		t.Errorf("Formats = %v", p.Formats)
	}

	d := p.Dungeon
	if d.Kind != generator.KindTreeFixedDoors || d.RoomCount != 30 || d.Seed != 7 {
		t.Errorf("dungeon = %+v", d)
	}
	if d.TreeStrategy != generator.StrategyRandomPredecessors {
		t.Errorf("TreeStrategy = %q", d.TreeStrategy)
	}
	if d.AdditionalEdges == nil || *d.AdditionalEdges != 0 {
		t.Errorf("explicit zero additional_edges should be kept, got %v", d.AdditionalEdges)
	}
	if len(d.RoomTypes) != 1 || d.RoomTypes[0].Width != 25 {
		t.Errorf("RoomTypes = %+v", d.RoomTypes)
	}
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"dungeongen.yaml", "dungeongen.yml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, yamlConfig))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Cache != "none" {
				t.Errorf("Cache = %q", cfg.Cache)
			}
			if cfg.Addr() != DefaultAddr {
				t.Errorf("Addr() = %q, want default", cfg.Addr())
			}
			p := cfg.Pipeline
			if !p.NoPushForce || p.RoomBloating != 2 {
				t.Errorf("no_push_force/room_bloating = %v/%g", p.NoPushForce, p.RoomBloating)
			}
			if p.Dungeon.Kind != generator.KindGrid || p.Dungeon.GridSide != 3 || !p.Dungeon.DisableHub {
				t.Errorf("dungeon = %+v", p.Dungeon)
			}
			if p.Dungeon.AdditionalEdges != nil {
				t.Error("absent additional_edges should stay nil")
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{"unknown extension", "config.json", "{}", errors.ErrCodeInvalidFormat},
		{"bad toml", "config.toml", "reruns = = 2", errors.ErrCodeInvalidFormat},
		{"unknown toml key", "config.toml", "[pipeline]\nreruns_count = 2", errors.ErrCodeInvalidFormat},
		{"unknown yaml key", "config.yaml", "pipeline:\n  rerun: 2\n", errors.ErrCodeInvalidFormat},
		{"bad log level", "config.yaml", "log_level: loud\n", errors.ErrCodeInvalidSettings},
		{"bad format", "config.toml", "[pipeline]\nformats = [\"gif\"]", errors.ErrCodeInvalidFormat},
		{"bad push mode", "config.yaml", "pipeline:\n  push_mode: nearest\n", errors.ErrCodeInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want FILE_NOT_FOUND", err)
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := Parse(nil, FormatYAML)
	if err != nil {
		t.Fatalf("empty yaml should parse: %v", err)
	}
	if cfg.Cache != "" || cfg.Pipeline.Reruns != 0 {
		t.Errorf("empty yaml should give the zero config, got %+v", cfg)
	}
}

func TestExampleConfigs(t *testing.T) {
	tests := []struct {
		file string
		kind generator.Kind
	}{
		{"dungeon.toml", generator.KindMovableDoors},
		{"grid.yaml", generator.KindGrid},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "..", "examples", tt.file))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Pipeline.Dungeon.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", cfg.Pipeline.Dungeon.Kind, tt.kind)
			}
			if err := cfg.Pipeline.ValidateAndSetDefaults(); err != nil {
				t.Errorf("example does not validate: %v", err)
			}
		})
	}
}

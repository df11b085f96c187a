// Package config loads dungeongen configuration files.
//
// A file holds pipeline options under [pipeline] plus the few settings that
// only the CLI and server need. Both TOML and YAML are accepted; the format
// is chosen by extension:
//
//	# dungeongen.toml
//	cache = "redis://localhost:6379/0"
//	output = "out"
//
//	[pipeline]
//	reruns = 2
//	formats = ["svg", "json"]
//
//	[pipeline.dungeon]
//	kind = "movable-doors"
//	room_count = 30
//	seed = 7
//
// Values set in a file are defaults; command-line flags override them.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

// Supported file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// DefaultAddr is the listen address of the HTTP server.
const DefaultAddr = ":8080"

// Config is the contents of a configuration file.
type Config struct {
	// Pipeline holds generator, solver and render options.
	Pipeline pipeline.Options `toml:"pipeline" yaml:"pipeline"`

	// Cache is a cache target understood by cache.Open.
	Cache string `toml:"cache" yaml:"cache"`

	// Output is the directory generated files are written to.
	Output string `toml:"output" yaml:"output"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Server configures `dungeongen serve`.
	Server Server `toml:"server" yaml:"server"`
}

// Server holds HTTP server settings.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

var validLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config file %s", path)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "config file %s", path)
	}
	return cfg, nil
}

// FormatOf returns the file format implied by the extension of path.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"unsupported config file %q (must end in .toml, .yaml or .yml)", path)
	}
}

// Parse decodes configuration data in the given format and validates it.
// Unknown keys are rejected so typos do not pass silently.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that can be checked without applying
// defaults. Pipeline options are fully validated when a run starts.
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return errors.New(errors.ErrCodeInvalidSettings,
			"invalid log_level: %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	if err := pipeline.ValidateFormats(c.Pipeline.Formats); err != nil {
		return err
	}
	if c.Pipeline.PushMode != "" {
		if err := pipeline.ValidatePushMode(c.Pipeline.PushMode); err != nil {
			return err
		}
	}
	return nil
}

// Addr returns the server listen address, defaulting to [DefaultAddr].
func (c *Config) Addr() string {
	if c.Server.Addr == "" {
		return DefaultAddr
	}
	return c.Server.Addr
}

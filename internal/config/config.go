// Package config loads and saves run settings from YAML files and maps
// them onto the derivative engine's option structs.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gomdao/gomdao/internal/linearize"
)

// Config holds every tunable of a linearization run.
type Config struct {
	Derivatives DerivativesConfig `yaml:"derivatives"`
	Sparsity    SparsityConfig    `yaml:"sparsity"`
	Recording   RecordingConfig   `yaml:"recording"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DerivativesConfig selects how partial derivatives are produced.
type DerivativesConfig struct {
	Direction  string  `yaml:"direction"` // auto, fwd, rev
	Method     string  `yaml:"method"`    // ad, fd
	JIT        bool    `yaml:"jit"`
	MatrixFree bool    `yaml:"matrix_free"`
	FDStep     float64 `yaml:"fd_step"`
}

// SparsityConfig tunes jacobian structure probing.
type SparsityConfig struct {
	Direction   string  `yaml:"direction"`
	NumIters    int     `yaml:"num_iters"`
	PerturbSize float64 `yaml:"perturb_size"`
	Tolerance   float64 `yaml:"tolerance"`
	Seed        int64   `yaml:"seed"`
}

// RecordingConfig controls the run recorder database.
type RecordingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in settings.
func Default() *Config {
	lin := linearize.DefaultOptions()
	sp := linearize.DefaultSparsityOptions()
	return &Config{
		Derivatives: DerivativesConfig{
			Direction:  lin.Direction.String(),
			Method:     "ad",
			JIT:        lin.JIT,
			MatrixFree: lin.MatrixFree,
			FDStep:     lin.FDStep,
		},
		Sparsity: SparsityConfig{
			Direction:   sp.Direction.String(),
			NumIters:    sp.NumIters,
			PerturbSize: sp.PerturbSize,
			Tolerance:   sp.Tolerance,
			Seed:        sp.Seed,
		},
		Recording: RecordingConfig{
			Enabled: false,
			Path:    "gomdao.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "config: read")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "config: create dir")
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "config: write")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if lvl := os.Getenv("GOMDAO_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if p := os.Getenv("GOMDAO_RECORD_PATH"); p != "" {
		c.Recording.Path = p
	}
}

// ParseDirection maps a config string onto a derivative direction.
func ParseDirection(s string) (linearize.Direction, error) {
	switch s {
	case "auto", "":
		return linearize.DirAuto, nil
	case "fwd", "forward":
		return linearize.DirFwd, nil
	case "rev", "reverse":
		return linearize.DirRev, nil
	}
	return linearize.DirAuto, errors.Errorf("config: unknown direction %q", s)
}

// ParseMethod maps a config string onto a derivative method.
func ParseMethod(s string) (linearize.Method, error) {
	switch s {
	case "ad", "":
		return linearize.MethodAD, nil
	case "fd":
		return linearize.MethodFD, nil
	}
	return linearize.MethodAD, errors.Errorf("config: unknown method %q", s)
}

// Options converts the derivatives section into engine options.
func (c *Config) Options() (linearize.Options, error) {
	opts := linearize.DefaultOptions()
	dir, err := ParseDirection(c.Derivatives.Direction)
	if err != nil {
		return opts, err
	}
	method, err := ParseMethod(c.Derivatives.Method)
	if err != nil {
		return opts, err
	}
	opts.Direction = dir
	opts.Method = method
	opts.JIT = c.Derivatives.JIT
	opts.MatrixFree = c.Derivatives.MatrixFree
	if c.Derivatives.FDStep > 0 {
		opts.FDStep = c.Derivatives.FDStep
	}
	return opts, nil
}

// SparsityOptions converts the sparsity section into probe options.
func (c *Config) SparsityOptions() (linearize.SparsityOptions, error) {
	opts := linearize.DefaultSparsityOptions()
	dir, err := ParseDirection(c.Sparsity.Direction)
	if err != nil {
		return opts, err
	}
	opts.Direction = dir
	if c.Sparsity.NumIters > 0 {
		opts.NumIters = c.Sparsity.NumIters
	}
	if c.Sparsity.PerturbSize > 0 {
		opts.PerturbSize = c.Sparsity.PerturbSize
	}
	if c.Sparsity.Tolerance > 0 {
		opts.Tolerance = c.Sparsity.Tolerance
	}
	opts.Seed = c.Sparsity.Seed
	return opts, nil
}

// Package config loads recognizer settings from a YAML file and TRACE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/septagon/TRACE/internal/direction"
	"github.com/septagon/TRACE/internal/gesture"
	"github.com/septagon/TRACE/internal/logging"
	"github.com/septagon/TRACE/internal/trajectory"
)

// EnvPrefix is the prefix of every environment override, e.g.
// TRACE_RECOGNIZER_ACCEPT_THRESHOLD.
const EnvPrefix = "TRACE"

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

var (
	ErrInvalidSegmentLength = errors.New("config: segment_length must be positive")
	ErrInvalidResolution    = errors.New("config: finest_resolution must be at least 3")
	ErrInvalidThreshold     = errors.New("config: accept_threshold must be positive")
	ErrInvalidMaxPoints     = errors.New("config: max_points must be positive")
	ErrInvalidAlphabet      = errors.New("config: invalid alphabet settings")
	ErrInvalidDriver        = errors.New("config: store driver must be sqlite or json")
	ErrMissingStorePath     = errors.New("config: store path is required")
	ErrInvalidLog           = errors.New("config: invalid log settings")
)

// Config is the complete runtime configuration.
type Config struct {
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RecognizerConfig tunes trajectory capture and classification. MaxPoints
// bounds the trajectory points of one trace.
type RecognizerConfig struct {
	SegmentLength    float64        `yaml:"segment_length" split_words:"true"`
	FinestResolution int            `yaml:"finest_resolution" split_words:"true"`
	AcceptThreshold  float64        `yaml:"accept_threshold" split_words:"true"`
	AutoLearn        bool           `yaml:"auto_learn" split_words:"true"`
	MaxPoints        int            `yaml:"max_points" split_words:"true"`
	Alphabet         AlphabetConfig `yaml:"alphabet"`
}

// AlphabetConfig controls generation of the direction alphabet. It only
// matters for fresh vocabularies; stored ones keep their own alphabet.
type AlphabetConfig struct {
	Size       int     `yaml:"size"`
	Iterations int     `yaml:"iterations"`
	StartStep  float64 `yaml:"start_step" split_words:"true"`
	EndStep    float64 `yaml:"end_step" split_words:"true"`
	Seed       int64   `yaml:"seed"`
}

// StoreConfig selects where snapshots are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures metric export. An empty Textfile disables the
// textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Recognizer: RecognizerConfig{
			SegmentLength:    trajectory.DefaultSegmentLength,
			FinestResolution: gesture.DefaultFinestResolution,
			AcceptThreshold:  gesture.DefaultAcceptThreshold,
			MaxPoints:        trajectory.DefaultMaxPoints,
			Alphabet: AlphabetConfig{
				Size:       direction.DefaultSize,
				Iterations: direction.DefaultIterations,
				StartStep:  direction.DefaultStartStep,
				EndStep:    direction.DefaultEndStep,
				Seed:       direction.DefaultSeed,
			},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "trace.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error; an
// empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	r := c.Recognizer
	if !(r.SegmentLength > 0) || math.IsInf(r.SegmentLength, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSegmentLength, r.SegmentLength)
	}
	if r.FinestResolution < 3 {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, r.FinestResolution)
	}
	if !(r.AcceptThreshold > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, r.AcceptThreshold)
	}
	if r.MaxPoints < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxPoints, r.MaxPoints)
	}

	a := r.Alphabet
	switch {
	case a.Size < 2:
		return fmt.Errorf("%w: size %d", ErrInvalidAlphabet, a.Size)
	case a.Iterations < 1:
		return fmt.Errorf("%w: iterations %d", ErrInvalidAlphabet, a.Iterations)
	case a.StartStep < 0 || a.EndStep < 0:
		return fmt.Errorf("%w: negative step", ErrInvalidAlphabet)
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return ErrMissingStorePath
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLog, err)
	}
	switch c.Log.Format {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidLog, c.Log.Format)
	}
	return nil
}

// GestureOptions converts the recognizer section into vocabulary options.
func (c Config) GestureOptions(logger *zap.Logger) gesture.Options {
	opts := gesture.DefaultOptions()
	a := c.Recognizer.Alphabet
	opts.Directions.Size = a.Size
	opts.Directions.Iterations = a.Iterations
	opts.Directions.StartStep = a.StartStep
	opts.Directions.EndStep = a.EndStep
	opts.Directions.Seed = a.Seed
	opts.FinestResolution = c.Recognizer.FinestResolution
	opts.AcceptThreshold = c.Recognizer.AcceptThreshold
	opts.Logger = logger
	return opts
}

// Logging converts the log section into a logger configuration writing to
// stderr.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}

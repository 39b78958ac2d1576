// Package config holds run options for the classification pipeline. Values
// come from defaults, then an optional .env file and LC_* environment
// variables; command-line flags may override them afterwards.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"lcclass/internal/classify"
	"lcclass/internal/sampler"
	"lcclass/internal/signature"

	"github.com/joho/godotenv"
)

// Config holds all run options.
type Config struct {
	// Inputs and outputs.
	RasterPath  string // LC_RASTER: raster manifest JSON
	PolygonPath string // LC_POLYGONS: GeoJSON reference polygons
	OutDir      string // LC_OUT
	ModelPath   string // LC_MODEL: load a trained model instead of training

	// Sampling and training.
	TrainFraction      float64            // LC_TRAIN_FRACTION
	SampleSizePerClass int                // LC_SAMPLE_SIZE
	Seed               int64              // LC_SEED
	ModelKind          classify.Kind      // LC_MODEL_KIND: mlc | rf
	Priors             classify.PriorMode // LC_PRIORS: uniform | proportional
	TreeCount          int                // LC_TREES
	MaxDepth           int                // LC_MAX_DEPTH
	MinLeaf            int                // LC_MIN_LEAF

	// Execution.
	Workers   int // LC_WORKERS
	BlockRows int // LC_BLOCK_ROWS

	// Band-name to wavelength table used for the signature plot.
	Wavelengths []signature.Wavelength // LC_BANDS: "B:490,G:560,..."

	LogLevel string // LC_LOG_LEVEL
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutDir:             "out",
		TrainFraction:      sampler.DefaultTrainFraction,
		SampleSizePerClass: 500,
		Seed:               1234,
		ModelKind:          classify.KindMaxLikelihood,
		Priors:             classify.PriorUniform,
		TreeCount:          100,
		MinLeaf:            1,
		Workers:            runtime.NumCPU(),
		BlockRows:          classify.DefaultBlockRows,
		Wavelengths:        signature.DefaultWavelengths(),
		LogLevel:           "info",
	}
}

// Load reads .env (if present) then environment variables over Default().
func Load() (Config, error) {
	// Best-effort: a missing .env is fine
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv applies LC_* variables obtained through getenv over Default().
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("LC_RASTER", &cfg.RasterPath)
	str("LC_POLYGONS", &cfg.PolygonPath)
	str("LC_OUT", &cfg.OutDir)
	str("LC_MODEL", &cfg.ModelPath)
	str("LC_LOG_LEVEL", &cfg.LogLevel)

	var err error
	if v := strings.TrimSpace(getenv("LC_TRAIN_FRACTION")); v != "" {
		if cfg.TrainFraction, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("LC_TRAIN_FRACTION: %w", err)
		}
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"LC_SAMPLE_SIZE", &cfg.SampleSizePerClass},
		{"LC_TREES", &cfg.TreeCount},
		{"LC_MAX_DEPTH", &cfg.MaxDepth},
		{"LC_MIN_LEAF", &cfg.MinLeaf},
		{"LC_WORKERS", &cfg.Workers},
		{"LC_BLOCK_ROWS", &cfg.BlockRows},
	}
	for _, e := range ints {
		if v := strings.TrimSpace(getenv(e.key)); v != "" {
			if *e.dst, err = strconv.Atoi(v); err != nil {
				return cfg, fmt.Errorf("%s: %w", e.key, err)
			}
		}
	}
	if v := strings.TrimSpace(getenv("LC_SEED")); v != "" {
		if cfg.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return cfg, fmt.Errorf("LC_SEED: %w", err)
		}
	}
	if v := strings.TrimSpace(getenv("LC_MODEL_KIND")); v != "" {
		if cfg.ModelKind, err = classify.ParseKind(v); err != nil {
			return cfg, fmt.Errorf("LC_MODEL_KIND: %w", err)
		}
	}
	if v := strings.TrimSpace(getenv("LC_PRIORS")); v != "" {
		if cfg.Priors, err = classify.ParsePriorMode(v); err != nil {
			return cfg, fmt.Errorf("LC_PRIORS: %w", err)
		}
	}
	if v := strings.TrimSpace(getenv("LC_BANDS")); v != "" {
		if cfg.Wavelengths, err = ParseWavelengths(v); err != nil {
			return cfg, fmt.Errorf("LC_BANDS: %w", err)
		}
	}
	return cfg, nil
}

// ParseWavelengths parses "name:nm,name:nm,...".
func ParseWavelengths(raw string) ([]signature.Wavelength, error) {
	var out []signature.Wavelength
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, nm, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("entry %d %q is not name:wavelength", i+1, part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(nm), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("entry %d %q has an invalid wavelength", i+1, part)
		}
		out = append(out, signature.Wavelength{Band: strings.TrimSpace(name), Nanometers: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no bands listed")
	}
	return out, nil
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if !(c.TrainFraction > 0 && c.TrainFraction < 1) {
		return fmt.Errorf("train fraction must be in (0,1), got %v", c.TrainFraction)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BlockRows <= 0 {
		return fmt.Errorf("block rows must be positive, got %d", c.BlockRows)
	}
	return c.ClassifyParams().Validate()
}

// ClassifyParams maps the configuration onto training parameters.
func (c Config) ClassifyParams() classify.Params {
	p := classify.DefaultParams().
		WithKind(c.ModelKind).
		WithSeed(c.Seed).
		WithSampleSize(c.SampleSizePerClass).
		WithTrees(c.TreeCount)
	p.Priors = c.Priors
	p.MaxDepth = c.MaxDepth
	p.MinLeaf = c.MinLeaf
	p.Workers = c.Workers
	return p
}

// WithModelKind returns a copy of c using kind k.
func (c Config) WithModelKind(k classify.Kind) Config {
	c.ModelKind = k
	return c
}

// WithSeed returns a copy of c with the given seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	return c
}

// WithWorkers returns a copy of c with n workers.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

package classify

import (
	"fmt"

	"lcclass/internal/landcover"
)

// Params holds training options. Start from DefaultParams and adjust with
// the With* helpers.
type Params struct {
	Kind Kind

	// SampleSizePerClass caps the training pixels drawn per class. Classes
	// with fewer pixels use all of them.
	SampleSizePerClass int
	Seed               int64

	// Classes is the label space the model must cover. A listed class with
	// no training pixels fails training. Empty means the classes present in
	// the training samples.
	Classes []landcover.Class

	// Gaussian options.
	Priors PriorMode

	// Forest options.
	TreeCount   int
	MaxDepth    int // 0 = unlimited
	MinLeaf     int
	MaxFeatures int // 0 = ceil(sqrt(bands))

	// Workers bounds concurrent tree training. Zero means runtime.NumCPU().
	Workers int
}

// DefaultParams returns the maximum-likelihood defaults.
func DefaultParams() Params {
	return Params{
		Kind:               KindMaxLikelihood,
		SampleSizePerClass: 500,
		Seed:               1234,
		Priors:             PriorUniform,
		TreeCount:          100,
		MinLeaf:            1,
	}
}

// WithKind returns a copy of p using model kind k.
func (p Params) WithKind(k Kind) Params {
	p.Kind = k
	return p
}

// WithSeed returns a copy of p with the given seed.
func (p Params) WithSeed(seed int64) Params {
	p.Seed = seed
	return p
}

// WithSampleSize returns a copy of p with the given per-class cap.
func (p Params) WithSampleSize(n int) Params {
	p.SampleSizePerClass = n
	return p
}

// WithClasses returns a copy of p with an explicit label space.
func (p Params) WithClasses(cs ...landcover.Class) Params {
	p.Classes = append([]landcover.Class(nil), cs...)
	return p
}

// WithTrees returns a copy of p with n trees.
func (p Params) WithTrees(n int) Params {
	p.TreeCount = n
	return p
}

// Validate checks option ranges.
func (p Params) Validate() error {
	if p.SampleSizePerClass <= 0 {
		return fmt.Errorf("sample size per class must be positive, got %d", p.SampleSizePerClass)
	}
	switch p.Kind {
	case KindMaxLikelihood:
	case KindRandomForest:
		if p.TreeCount <= 0 {
			return fmt.Errorf("tree count must be positive, got %d", p.TreeCount)
		}
		if p.MinLeaf < 1 {
			return fmt.Errorf("min leaf must be at least 1, got %d", p.MinLeaf)
		}
		if p.MaxDepth < 0 || p.MaxFeatures < 0 {
			return fmt.Errorf("max depth and max features must not be negative")
		}
	default:
		return fmt.Errorf("unknown model kind %d", p.Kind)
	}
	return nil
}

// Package classify trains per-class statistical models from labeled pixel
// samples and applies them to samples and whole rasters.
package classify

import (
	"fmt"
	"math"
	"strings"

	"lcclass/internal/landcover"
)

// Kind selects the model family.
type Kind int

const (
	// KindMaxLikelihood is the Gaussian maximum-likelihood classifier.
	KindMaxLikelihood Kind = iota
	// KindRandomForest is an ensemble of CART trees voting by majority.
	KindRandomForest
)

func (k Kind) String() string {
	switch k {
	case KindMaxLikelihood:
		return "mlc"
	case KindRandomForest:
		return "rf"
	default:
		return "unknown"
	}
}

// ParseKind accepts "mlc"/"maximum-likelihood" and "rf"/"random-forest".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mlc", "maximum-likelihood", "ml":
		return KindMaxLikelihood, nil
	case "rf", "random-forest", "forest":
		return KindRandomForest, nil
	}
	return 0, fmt.Errorf("unknown model kind %q", s)
}

// PriorMode selects how class priors are set for the Gaussian model.
type PriorMode int

const (
	// PriorUniform gives every class the same prior.
	PriorUniform PriorMode = iota
	// PriorProportional weights classes by their available training pixels.
	PriorProportional
)

func (p PriorMode) String() string {
	if p == PriorProportional {
		return "proportional"
	}
	return "uniform"
}

// ParsePriorMode accepts "uniform" or "proportional".
func ParsePriorMode(s string) (PriorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return PriorUniform, nil
	case "proportional":
		return PriorProportional, nil
	}
	return 0, fmt.Errorf("unknown prior mode %q", s)
}

// Model is a trained classifier. Implementations are immutable and safe for
// concurrent use.
type Model interface {
	Kind() Kind
	// Classes is the label space in ascending code order.
	Classes() []landcover.Class
	// BandCount is the length of the feature vectors the model expects.
	BandCount() int
	// Classify labels one complete band vector.
	Classify(x []float64) landcover.Class
}

// pickMax returns the class with the highest score, scanning classes in
// ascending code so ties go to the lowest code. NaN scores never win.
func pickMax(classes []landcover.Class, score func(i int) float64) landcover.Class {
	best := landcover.NoData
	bestScore := 0.0
	for i, c := range classes {
		s := score(i)
		if math.IsNaN(s) {
			continue
		}
		if best == landcover.NoData || s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

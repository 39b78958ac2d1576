package landcover

import "math"

// PixelSample is one raster cell drawn from inside a reference polygon.
// Values holds one reflectance per raster band, in band order.
type PixelSample struct {
	PolygonID string
	Class     Class
	Split     Split
	Col, Row  int
	Values    []float64
}

// Complete reports whether every band value is present.
func (s PixelSample) Complete() bool {
	return CompleteVector(s.Values)
}

// CompleteVector reports whether v contains no NaN.
func CompleteVector(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return false
		}
	}
	return true
}

// FilterSplit returns the samples tagged with split, preserving order.
func FilterSplit(samples []PixelSample, split Split) []PixelSample {
	var out []PixelSample
	for _, s := range samples {
		if s.Split == split {
			out = append(out, s)
		}
	}
	return out
}

// Labels returns the class of each sample.
func Labels(samples []PixelSample) []Class {
	out := make([]Class, len(samples))
	for i, s := range samples {
		out[i] = s.Class
	}
	return out
}

// CountByClass tallies samples per class.
func CountByClass(samples []PixelSample) map[Class]int {
	out := make(map[Class]int)
	for _, s := range samples {
		out[s.Class]++
	}
	return out
}

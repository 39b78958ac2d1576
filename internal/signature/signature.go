// Package signature summarizes per-class spectral signatures: descriptive
// statistics of reflectance for every (class, band) pair.
package signature

import (
	"math"
	"sort"
	"strconv"

	"lcclass/internal/landcover"

	"gonum.org/v1/gonum/stat"
)

// Key addresses one (class, band) slice.
type Key struct {
	Class landcover.Class
	Band  string
}

// Stats describes one (class, band) slice. Std is the sample standard
// deviation (n-1 denominator). With N == 0 every field is NaN; with N == 1
// Std is NaN.
type Stats struct {
	N    int
	Mean float64
	P5   float64
	P95  float64
	Max  float64
	Std  float64
}

// Defined reports whether the slice held any values.
func (s Stats) Defined() bool { return s.N > 0 }

// Signatures maps (class, band) to statistics.
type Signatures struct {
	Bands   []string
	Classes []landcover.Class
	Stats   map[Key]Stats
}

// Get returns the stats for (class, band); ok is false if the pair was never
// summarized.
func (s Signatures) Get(c landcover.Class, band string) (Stats, bool) {
	st, ok := s.Stats[Key{Class: c, Band: band}]
	return st, ok
}

// Summarize computes statistics for every band of every class present in
// samples plus any class listed in include. NaN values are ignored. Inputs
// are not modified.
func Summarize(samples []landcover.PixelSample, bands []string, include ...landcover.Class) Signatures {
	values := map[Key][]float64{}
	classSet := map[landcover.Class]struct{}{}
	for _, c := range include {
		classSet[c] = struct{}{}
	}
	for _, s := range samples {
		classSet[s.Class] = struct{}{}
		for b, name := range bands {
			if b >= len(s.Values) || math.IsNaN(s.Values[b]) {
				continue
			}
			k := Key{Class: s.Class, Band: name}
			values[k] = append(values[k], s.Values[b])
		}
	}

	classes := make([]landcover.Class, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	landcover.SortClasses(classes)

	out := Signatures{
		Bands:   append([]string(nil), bands...),
		Classes: classes,
		Stats:   make(map[Key]Stats, len(classes)*len(bands)),
	}
	for _, c := range classes {
		for _, b := range bands {
			k := Key{Class: c, Band: b}
			out.Stats[k] = Describe(values[k])
		}
	}
	return out
}

// Describe computes Stats over x, which it sorts in place.
func Describe(x []float64) Stats {
	if len(x) == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, P5: nan, P95: nan, Max: nan, Std: nan}
	}
	sort.Float64s(x)
	mean, std := stat.MeanStdDev(x, nil)
	return Stats{
		N:    len(x),
		Mean: mean,
		P5:   stat.Quantile(0.05, stat.Empirical, x, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, x, nil),
		Max:  x[len(x)-1],
		Std:  std,
	}
}

// Table flattens the signatures into rows ordered by class then band, with
// a header row first. Undefined values render as "NA".
func (s Signatures) Table() [][]string {
	rows := [][]string{{"class_id", "class", "band", "n", "mean", "p5", "p95", "max", "std"}}
	for _, c := range s.Classes {
		for _, b := range s.Bands {
			st := s.Stats[Key{Class: c, Band: b}]
			rows = append(rows, []string{
				strconv.Itoa(int(c)),
				c.String(),
				b,
				strconv.Itoa(st.N),
				formatFloat(st.Mean),
				formatFloat(st.P5),
				formatFloat(st.P95),
				formatFloat(st.Max),
				formatFloat(st.Std),
			})
		}
	}
	return rows
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

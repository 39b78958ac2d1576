// Package accuracy cross-tabulates predicted against reference labels and
// derives overall, producer's and user's accuracy. Everything is keyed by
// class identity; storage order never affects a result.
package accuracy

import (
	"lcclass/internal/landcover"
)

type cell struct {
	predicted landcover.Class
	reference landcover.Class
}

// ConfusionMatrix counts (predicted, reference) class pairs.
// Rows are predicted classes, columns are reference classes.
type ConfusionMatrix struct {
	counts  map[cell]int
	classes map[landcover.Class]struct{}
	total   int
}

// NewConfusionMatrix returns an empty matrix. Classes listed in include are
// reported by Classes even if they never occur.
func NewConfusionMatrix(include ...landcover.Class) *ConfusionMatrix {
	m := &ConfusionMatrix{
		counts:  map[cell]int{},
		classes: map[landcover.Class]struct{}{},
	}
	for _, c := range include {
		if c != landcover.NoData {
			m.classes[c] = struct{}{}
		}
	}
	return m
}

// Add records one pair. Pairs involving NoData are ignored; Add reports
// whether the pair was counted.
func (m *ConfusionMatrix) Add(predicted, reference landcover.Class) bool {
	if predicted == landcover.NoData || reference == landcover.NoData {
		return false
	}
	m.counts[cell{predicted, reference}]++
	m.classes[predicted] = struct{}{}
	m.classes[reference] = struct{}{}
	m.total++
	return true
}

// Count returns the number of samples predicted as p whose reference is r.
func (m *ConfusionMatrix) Count(p, r landcover.Class) int {
	return m.counts[cell{p, r}]
}

// Classes returns every class seen or included, ascending.
func (m *ConfusionMatrix) Classes() []landcover.Class {
	out := make([]landcover.Class, 0, len(m.classes))
	for c := range m.classes {
		out = append(out, c)
	}
	landcover.SortClasses(out)
	return out
}

// Total is the sum of all cells.
func (m *ConfusionMatrix) Total() int { return m.total }

// Trace is the number of correctly classified samples.
func (m *ConfusionMatrix) Trace() int {
	t := 0
	for c := range m.classes {
		t += m.counts[cell{c, c}]
	}
	return t
}

// RowSum is the number of samples predicted as c.
func (m *ConfusionMatrix) RowSum(c landcover.Class) int {
	s := 0
	for r := range m.classes {
		s += m.counts[cell{c, r}]
	}
	return s
}

// ColumnSum is the number of samples whose reference class is c.
func (m *ConfusionMatrix) ColumnSum(c landcover.Class) int {
	s := 0
	for p := range m.classes {
		s += m.counts[cell{p, c}]
	}
	return s
}

// Rows returns the matrix as a dense table in Classes() order, for rendering.
func (m *ConfusionMatrix) Rows() [][]int {
	cs := m.Classes()
	out := make([][]int, len(cs))
	for i, p := range cs {
		out[i] = make([]int, len(cs))
		for j, r := range cs {
			out[i][j] = m.counts[cell{p, r}]
		}
	}
	return out
}

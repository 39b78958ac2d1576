// Package sampler splits reference polygons into training and validation
// sets, stratified by class.
package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"lcclass/internal/landcover"
)

// DefaultTrainFraction is the share of each class's polygons used for training.
const DefaultTrainFraction = 0.7

// ClassSplit records how one class was divided.
type ClassSplit struct {
	Class      landcover.Class
	Total      int
	Training   int
	Validation int
}

// Summary lists per-class split counts in ascending class order.
type Summary []ClassSplit

// Split draws round(trainFraction * n) training polygons without
// replacement from each class and tags the rest as validation. Polygons are
// returned as tagged copies sharing the input geometry; the input slice is
// not modified.
//
// Within a class polygons are ordered by ID before drawing and classes are
// visited in ascending code, all from one generator seeded with seed, so the
// result does not depend on input order.
func Split(polygons []landcover.Polygon, trainFraction float64, seed int64) (train, val []landcover.Polygon, err error) {
	if !(trainFraction > 0 && trainFraction < 1) {
		return nil, nil, &landcover.DataError{Reason: fmt.Sprintf("train fraction %v outside (0,1)", trainFraction)}
	}
	if err := landcover.ValidatePolygons(polygons); err != nil {
		return nil, nil, err
	}

	byClass := map[landcover.Class][]landcover.Polygon{}
	for _, p := range polygons {
		byClass[p.Class] = append(byClass[p.Class], p)
	}

	rnd := rand.New(rand.NewSource(seed))
	for _, class := range landcover.ClassesOf(polygons) {
		group := byClass[class]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		nTrain := TrainCount(len(group), trainFraction)
		perm := rnd.Perm(len(group))
		for i, idx := range perm {
			p := group[idx]
			if i < nTrain {
				p.Split = landcover.SplitTraining
				train = append(train, p)
			} else {
				p.Split = landcover.SplitValidation
				val = append(val, p)
			}
		}
	}
	return train, val, nil
}

// TrainCount is round(fraction * n), rounding halves away from zero.
func TrainCount(n int, fraction float64) int {
	return int(math.Round(fraction * float64(n)))
}

// Summarize counts each class's polygons on both sides of a split.
func Summarize(train, val []landcover.Polygon) Summary {
	m := map[landcover.Class]*ClassSplit{}
	get := func(c landcover.Class) *ClassSplit {
		if s, ok := m[c]; ok {
			return s
		}
		s := &ClassSplit{Class: c}
		m[c] = s
		return s
	}
	for _, p := range train {
		s := get(p.Class)
		s.Training++
		s.Total++
	}
	for _, p := range val {
		s := get(p.Class)
		s.Validation++
		s.Total++
	}

	out := make(Summary, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// Tagged returns train followed by val, the full polygon set with split tags.
func Tagged(train, val []landcover.Polygon) []landcover.Polygon {
	out := make([]landcover.Polygon, 0, len(train)+len(val))
	out = append(out, train...)
	return append(out, val...)
}

package classify

import (
	"fmt"
	"math/rand"
	"sort"

	"lcclass/internal/landcover"
)

// ClassCount records how many training pixels a class had and how many were
// drawn for fitting.
type ClassCount struct {
	Class     landcover.Class
	Available int
	Used      int
}

// TrainSummary reports the per-class subsample sizes so that clamping to
// fewer than SampleSizePerClass pixels is visible to the caller.
type TrainSummary struct {
	Requested int
	Bands     int
	Counts    []ClassCount
	Skipped   int // samples dropped for a missing band value
}

// Clamped lists classes that had fewer pixels than requested.
func (s TrainSummary) Clamped() []ClassCount {
	var out []ClassCount
	for _, c := range s.Counts {
		if c.Used < s.Requested {
			out = append(out, c)
		}
	}
	return out
}

// Train fits a model of p.Kind from training samples.
//
// For each class in the label space at most p.SampleSizePerClass pixels are
// drawn without replacement using a generator seeded with p.Seed; classes
// with fewer pixels use all of them. A class with no pixels fails with a
// *landcover.ModelingError wrapping a *landcover.SamplingError.
func Train(samples []landcover.PixelSample, p Params) (Model, TrainSummary, error) {
	if err := p.Validate(); err != nil {
		return nil, TrainSummary{}, err
	}
	ts, summary, err := subsample(samples, p)
	if err != nil {
		return nil, summary, err
	}

	var m Model
	switch p.Kind {
	case KindMaxLikelihood:
		m, err = fitGaussian(ts, p.Priors)
	case KindRandomForest:
		m = fitForest(ts, p)
	}
	if err != nil {
		return nil, summary, err
	}
	return m, summary, nil
}

// trainingSet holds the per-class subsampled vectors in ascending class order.
type trainingSet struct {
	bands     int
	classes   []landcover.Class
	rows      [][][]float64 // rows[i] are the vectors of classes[i]
	available []int
}

func subsample(samples []landcover.PixelSample, p Params) (*trainingSet, TrainSummary, error) {
	summary := TrainSummary{Requested: p.SampleSizePerClass}

	byClass := map[landcover.Class][][]float64{}
	bands := -1
	for _, s := range samples {
		if !s.Complete() {
			summary.Skipped++
			continue
		}
		if bands < 0 {
			bands = len(s.Values)
		} else if len(s.Values) != bands {
			return nil, summary, &landcover.DataError{Reason: fmt.Sprintf("sample from polygon %s has %d bands, want %d", s.PolygonID, len(s.Values), bands)}
		}
		byClass[s.Class] = append(byClass[s.Class], s.Values)
	}

	classes := p.Classes
	if len(classes) == 0 {
		for c := range byClass {
			classes = append(classes, c)
		}
	}
	classes = append([]landcover.Class(nil), classes...)
	landcover.SortClasses(classes)
	if len(classes) == 0 {
		return nil, summary, &landcover.DataError{Reason: "no training samples"}
	}

	for _, c := range classes {
		if len(byClass[c]) == 0 {
			return nil, summary, &landcover.ModelingError{
				Class:  c,
				Reason: "class cannot be modeled",
				Err:    &landcover.SamplingError{Class: c, Reason: "no training pixels"},
			}
		}
	}
	summary.Bands = bands

	rnd := rand.New(rand.NewSource(p.Seed))
	ts := &trainingSet{bands: bands, classes: classes}
	for _, c := range classes {
		all := byClass[c]
		picked := all
		if len(all) > p.SampleSizePerClass {
			idx := rnd.Perm(len(all))[:p.SampleSizePerClass]
			sort.Ints(idx)
			picked = make([][]float64, len(idx))
			for i, j := range idx {
				picked[i] = all[j]
			}
		}
		ts.rows = append(ts.rows, picked)
		ts.available = append(ts.available, len(all))
		summary.Counts = append(summary.Counts, ClassCount{Class: c, Available: len(all), Used: len(picked)})
	}
	return ts, summary, nil
}

package classify

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"lcclass/internal/landcover"
)

// Forest is a random-forest ensemble. Every tree is grown on a bootstrap
// resample of the class-balanced training set, considering a random subset
// of bands at each split. Prediction is a majority vote; ties go to the
// lowest class code.
type Forest struct {
	bands   int
	classes []landcover.Class
	trees   []*treeNode
}

func (f *Forest) Kind() Kind                 { return KindRandomForest }
func (f *Forest) BandCount() int             { return f.bands }
func (f *Forest) Classes() []landcover.Class { return append([]landcover.Class(nil), f.classes...) }

// TreeCount returns the number of trees in the ensemble.
func (f *Forest) TreeCount() int { return len(f.trees) }

// Votes returns the per-class vote counts for x, aligned with Classes().
func (f *Forest) Votes(x []float64) []int {
	pos := make(map[landcover.Class]int, len(f.classes))
	for i, c := range f.classes {
		pos[c] = i
	}
	votes := make([]int, len(f.classes))
	for _, t := range f.trees {
		votes[pos[t.classify(x)]]++
	}
	return votes
}

// Classify labels a complete band vector by majority vote.
func (f *Forest) Classify(x []float64) landcover.Class {
	votes := f.Votes(x)
	return f.classes[argmaxCount(votes)]
}

func fitForest(ts *trainingSet, p Params) *Forest {
	var (
		x [][]float64
		y []int
	)
	for i, rows := range ts.rows {
		for _, r := range rows {
			x = append(x, r)
			y = append(y, i)
		}
	}

	maxFeatures := p.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Ceil(math.Sqrt(float64(ts.bands))))
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	f := &Forest{
		bands:   ts.bands,
		classes: ts.classes,
		trees:   make([]*treeNode, p.TreeCount),
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for t := 0; t < p.TreeCount; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()

			// Each tree owns a generator so the ensemble does not depend on
			// scheduling order.
			rnd := rand.New(rand.NewSource(p.Seed + int64(t) + 1))
			n := len(x)
			boot := make([]int, n)
			for i := range boot {
				boot[i] = rnd.Intn(n)
			}
			b := &treeBuilder{
				x:           x,
				y:           y,
				classes:     ts.classes,
				maxDepth:    p.MaxDepth,
				minLeaf:     p.MinLeaf,
				maxFeatures: maxFeatures,
				rnd:         rnd,
			}
			f.trees[t] = b.build(boot, 0)
		}(t)
	}
	wg.Wait()
	return f
}

package classify

import (
	"math/rand"
	"sort"

	"lcclass/internal/landcover"
)

// treeNode is one node of a CART tree. Leaves carry a class; internal nodes
// send x[Feature] <= Threshold left.
type treeNode struct {
	Leaf      bool            `json:"leaf,omitempty"`
	Class     landcover.Class `json:"class,omitempty"`
	Feature   int             `json:"feature,omitempty"`
	Threshold float64         `json:"threshold,omitempty"`
	Left      *treeNode       `json:"left,omitempty"`
	Right     *treeNode       `json:"right,omitempty"`
}

func (n *treeNode) classify(x []float64) landcover.Class {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

// treeBuilder grows a gini CART tree over rows selected by index.
type treeBuilder struct {
	x           [][]float64
	y           []int // index into classes
	classes     []landcover.Class
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rnd         *rand.Rand
}

func (b *treeBuilder) build(idx []int, depth int) *treeNode {
	counts := make([]int, len(b.classes))
	for _, i := range idx {
		counts[b.y[i]]++
	}
	leaf := &treeNode{Leaf: true, Class: b.classes[argmaxCount(counts)]}

	if isPure(counts) || len(idx) < 2*b.minLeaf {
		return leaf
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit searches a random subset of features for the threshold with the
// largest gini decrease. Features are tried in the drawn order and only a
// strictly better split replaces the current best.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	p := len(b.x[idx[0]])
	features := b.rnd.Perm(p)
	if b.maxFeatures > 0 && b.maxFeatures < p {
		features = features[:b.maxFeatures]
	}

	n := len(idx)
	parent := gini(counts, n)
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, n)
	left := make([]int, len(b.classes))
	right := make([]int, len(b.classes))
	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		for k := range left {
			left[k] = 0
		}
		copy(right, counts)

		for k := 0; k < n-1; k++ {
			c := b.y[sorted[k]]
			left[c]++
			right[c]--

			v, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if v == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			child := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if gain := parent - child; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// argmaxCount returns the first index with the highest count. Counts are
// aligned with ascending class codes, so ties go to the lowest code.
func argmaxCount(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

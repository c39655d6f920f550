// Package tree implements CART regression trees with a scikit-learn compatible API.
package tree

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/core/parallel"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

const (
	// CriterionFriedmanMSE scores a split by nL*nR*(meanL-meanR)^2.
	CriterionFriedmanMSE = "friedman_mse"
	// CriterionSquaredError scores a split by the reduction in squared error.
	CriterionSquaredError = "squared_error"

	leafFeature       = -1
	parallelThreshold = 2048
)

// Node is one entry of the flat node array. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	NSamples  int
	Impurity  float64
}

// DecisionTreeRegressor is a binary regression tree grown greedily by exhaustive
// threshold search. Samples with x <= Threshold go left.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	Nodes []Node
}

// NewDecisionTreeRegressor returns a tree with scikit-learn defaults
// (friedman_mse, unlimited depth, min_samples_split=2, min_samples_leaf=1).
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		Criterion:       CriterionFriedmanMSE,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on X (n×p) and y (n×1).
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")
	t.Reset()

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if t.Criterion != CriterionFriedmanMSE && t.Criterion != CriterionSquaredError {
		return errors.NewValidationError("criterion", "must be friedman_mse or squared_error", t.Criterion)
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}

	b := &builder{
		tree: t,
		X:    asDense(X),
		y:    make([]float64, rows),
	}
	for i := 0; i < rows; i++ {
		b.y[i] = y.At(i, 0)
	}

	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}

	t.Nodes = t.Nodes[:0]
	b.grow(idx, 0)
	t.SetFitted(cols)
	return nil
}

// Predict returns the leaf mean for every row of X as an n×1 matrix.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.CheckPredict("DecisionTreeRegressor", "Predict", X); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()

	out := make([]float64, rows)
	parallel.Rows(rows, parallelThreshold, func(i int) {
		out[i] = t.predictRow(X, i)
	})
	return mat.NewDense(rows, 1, out), nil
}

func (t *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	n := 0
	for t.Nodes[n].Feature != leafFeature {
		node := t.Nodes[n]
		if X.At(i, node.Feature) <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
	return t.Nodes[n].Value
}

// Depth returns the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTreeRegressor) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(n, d int) int
	walk = func(n, d int) int {
		node := t.Nodes[n]
		if node.Feature == leafFeature {
			return d
		}
		l := walk(node.Left, d+1)
		r := walk(node.Right, d+1)
		if l > r {
			return l
		}
		return r
	}
	return walk(0, 0)
}

// NLeaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) NLeaves() int {
	leaves := 0
	for _, n := range t.Nodes {
		if n.Feature == leafFeature {
			leaves++
		}
	}
	return leaves
}

type builder struct {
	tree *DecisionTreeRegressor
	X    *mat.Dense
	y    []float64
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

type sample struct {
	x float64
	y float64
}

// grow appends the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	t := b.tree
	n := len(idx)

	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	impurity := math.Max(sumSq/float64(n)-mean*mean, 0)

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Feature:  leafFeature,
		Value:    mean,
		NSamples: n,
		Impurity: impurity,
		Left:     -1,
		Right:    -1,
	})

	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		n < t.MinSamplesSplit ||
		n < 2*t.MinSamplesLeaf ||
		impurity <= 1e-14 {
		return self
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return self
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if b.X.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	node := &t.Nodes[self]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return self
}

func (b *builder) bestSplit(idx []int, total float64) (split, bool) {
	t := b.tree
	n := len(idx)
	_, cols := b.X.Dims()

	best := split{score: math.Inf(-1)}
	found := false
	samples := make([]sample, n)

	for f := 0; f < cols; f++ {
		for k, i := range idx {
			samples[k] = sample{x: b.X.At(i, f), y: b.y[i]}
		}
		sort.SliceStable(samples, func(a, c int) bool { return samples[a].x < samples[c].x })
		if samples[0].x == samples[n-1].x {
			continue
		}

		var sumLeft float64
		for pos := 1; pos < n; pos++ {
			sumLeft += samples[pos-1].y
			prev, cur := samples[pos-1].x, samples[pos].x
			if cur <= prev {
				continue
			}
			nL, nR := pos, n-pos
			if nL < t.MinSamplesLeaf || nR < t.MinSamplesLeaf {
				continue
			}

			score := b.splitScore(sumLeft, total-sumLeft, float64(nL), float64(nR))
			if score > best.score {
				threshold := prev/2 + cur/2
				if threshold >= cur {
					threshold = prev
				}
				best = split{feature: f, threshold: threshold, score: score}
				found = true
			}
		}
	}
	return best, found
}

// splitScore is the proxy improvement maximized over candidate splits.
func (b *builder) splitScore(sumL, sumR, nL, nR float64) float64 {
	if b.tree.Criterion == CriterionFriedmanMSE {
		diff := sumR*nL - sumL*nR
		return diff * diff / (nL * nR)
	}
	return sumL*sumL/nL + sumR*sumR/nR
}

func asDense(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(X)
}

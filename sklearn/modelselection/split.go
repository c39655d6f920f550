// Package modelselection provides cross-validation splitters in the manner of
// scikit-learn's model_selection module.
package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// MSDTrainSize is the fixed train/test boundary of the YearPredictionMSD dataset.
// The first 463,715 rows are the training set and the remainder the test set, as the
// dataset's producers recommend, to avoid the producer effect.
const MSDTrainSize = 463715

// Fold represents a single fold in cross-validation
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates folds for n samples.
type Splitter interface {
	Split(n int) ([]Fold, error)
	GetNSplits() int
}

// KFold implements unshuffled k-fold cross-validation. Test folds are contiguous and
// the first n%k folds hold one sample more than the rest.
type KFold struct {
	NSplits int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int) *KFold {
	return &KFold{NSplits: nSplits}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", kf.NSplits)
	}
	if n < kf.NSplits {
		return nil, errors.NewValueError("KFold.Split",
			"cannot have number of splits greater than the number of samples")
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	start := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		stop := start + testSize
		folds[i] = Fold{
			TrainIndices: append(arange(0, start), arange(stop, n)...),
			TestIndices:  arange(start, stop),
		}
		start = stop
	}
	return folds, nil
}

// FixedSplit is a single predetermined split: rows [0, Boundary) train, the rest test.
type FixedSplit struct {
	Boundary int
}

// GetNSplits returns 1
func (f *FixedSplit) GetNSplits() int {
	return 1
}

// Split returns the single fold.
func (f *FixedSplit) Split(n int) ([]Fold, error) {
	if f.Boundary <= 0 || f.Boundary >= n {
		return nil, errors.NewValueError("FixedSplit.Split", "boundary must leave rows on both sides")
	}
	return []Fold{{TrainIndices: arange(0, f.Boundary), TestIndices: arange(f.Boundary, n)}}, nil
}

// SplitterFor returns the fixed MSD split for "msd" and an unshuffled k-fold otherwise.
func SplitterFor(dataset string, nSplits int) Splitter {
	if dataset == "msd" {
		return &FixedSplit{Boundary: MSDTrainSize}
	}
	return NewKFold(nSplits)
}

// Folds generates the outer cross-validation folds for a dataset of n rows.
func Folds(dataset string, n, nSplits int) ([]Fold, error) {
	return SplitterFor(dataset, nSplits).Split(n)
}

// TrainTestSplit draws a random permutation of 0..n-1 from rng and returns
// ceil(testSize·n) test indices followed by the remaining train indices, in
// permutation order.
func TrainTestSplit(n int, testSize float64, rng *rand.Rand) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"the resulting train or test set would be empty")
	}
	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// TakeRows gathers the rows of X at idx, keeping their order.
func TakeRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	if d, ok := X.(*mat.Dense); ok {
		for k, i := range idx {
			out.SetRow(k, d.RawRowView(i))
		}
		return out
	}
	for k, i := range idx {
		for j := 0; j < c; j++ {
			out.Set(k, j, X.At(i, j))
		}
	}
	return out
}

// TakeVec gathers the elements of y at idx, keeping their order.
func TakeVec(y mat.Vector, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for k, i := range idx {
		out.SetVec(k, y.AtVec(i))
	}
	return out
}

func arange(start, stop int) []int {
	out := make([]int, 0, max(stop-start, 0))
	for i := start; i < stop; i++ {
		out = append(out, i)
	}
	return out
}

package ngboost

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// Distribution is a batch of predictive distributions of one family, one per sample.
//
// Parameters are held in the internal (unconstrained) parameterization as an n×k
// matrix: Normal and Laplace use (loc, log scale), HomoskedasticNormal uses (loc).
// Gradients and metrics are taken with respect to these internal parameters.
type Distribution interface {
	// Family returns the family that created this distribution.
	Family() Family
	// Len is the number of samples.
	Len() int
	// Params returns the n×k internal parameter matrix.
	Params() *mat.Dense

	Loc() []float64
	Scale() []float64

	LogPDF(y []float64) []float64
	CDF(y []float64) []float64
	// PPF returns the q-quantile of every sample's distribution.
	PPF(q float64) []float64
	// CRPS is the closed-form continuous ranked probability score per sample.
	CRPS(y []float64) []float64

	// NLLGrad is d(-log p(y))/dθ, n×k.
	NLLGrad(y []float64) *mat.Dense
	// FisherInfo is the diagonal of the per-sample Fisher information, n×k.
	FisherInfo() *mat.Dense
	// CRPSGrad is dCRPS(y)/dθ, n×k.
	CRPSGrad(y []float64) *mat.Dense
	// CRPSMetric is the diagonal of the per-sample Riemannian metric of CRPS, n×k.
	CRPSMetric() *mat.Dense
}

// Family creates distributions from parameters and fits the marginal of y.
type Family interface {
	Name() string
	NParams() int
	// Marginal fits one distribution to all of y and returns its internal parameters.
	Marginal(y []float64) ([]float64, error)
	// FromParams builds the batch from an n×NParams() internal parameter matrix.
	FromParams(params *mat.Dense) Distribution
}

// Supported families.
var (
	Normal              Family = normalFamily{}
	Laplace             Family = laplaceFamily{}
	HomoskedasticNormal Family = homoskedasticFamily{}
)

var families = map[string]Family{
	Normal.Name():              Normal,
	Laplace.Name():             Laplace,
	HomoskedasticNormal.Name(): HomoskedasticNormal,
}

// FamilyByName looks up "Normal", "Laplace" or "HomoskedasticNormal".
func FamilyByName(name string) (Family, error) {
	f, ok := families[name]
	if !ok {
		return nil, errors.NewValidationError("distn", "must be one of Normal, Laplace, HomoskedasticNormal", name)
	}
	return f, nil
}

// FamilyNames returns the registered family names in sorted order.
func FamilyNames() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// invSqrtPi = 1/√π
var invSqrtPi = 1 / math.Sqrt(math.Pi)

func meanStd(y []float64) (float64, float64) {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var ss float64
	for _, v := range y {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(y)))
}

func median(y []float64) float64 {
	s := append([]float64(nil), y...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func checkMarginal(op string, y []float64) error {
	if len(y) == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return nil
}

// constParams tiles p into an n×len(p) matrix.
func constParams(n int, p []float64) *mat.Dense {
	out := mat.NewDense(n, len(p), nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, p)
	}
	return out
}

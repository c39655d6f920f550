package ngboost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// Score is a proper scoring rule: a per-sample loss of a forecast against y, its
// gradient with respect to the internal parameters and the diagonal of its metric.
type Score interface {
	Name() string
	Loss(d Distribution, y []float64) []float64
	Grad(d Distribution, y []float64) *mat.Dense
	Metric(d Distribution) *mat.Dense
}

// MLE is the logarithmic score (negative log likelihood); its metric is the Fisher information.
type MLE struct{}

func (MLE) Name() string                                { return "MLE" }
func (MLE) Grad(d Distribution, y []float64) *mat.Dense { return d.NLLGrad(y) }
func (MLE) Metric(d Distribution) *mat.Dense            { return d.FisherInfo() }

func (MLE) Loss(d Distribution, y []float64) []float64 {
	lp := d.LogPDF(y)
	for i := range lp {
		lp[i] = -lp[i]
	}
	return lp
}

// CRPS is the continuous ranked probability score.
type CRPS struct{}

func (CRPS) Name() string                                { return "CRPS" }
func (CRPS) Loss(d Distribution, y []float64) []float64  { return d.CRPS(y) }
func (CRPS) Grad(d Distribution, y []float64) *mat.Dense { return d.CRPSGrad(y) }
func (CRPS) Metric(d Distribution) *mat.Dense            { return d.CRPSMetric() }

// ScoreByName looks up "MLE" or "CRPS".
func ScoreByName(name string) (Score, error) {
	switch name {
	case "MLE":
		return MLE{}, nil
	case "CRPS":
		return CRPS{}, nil
	default:
		return nil, errors.NewValidationError("score", "must be MLE or CRPS", name)
	}
}

// TotalScore is the mean per-sample loss.
func TotalScore(s Score, d Distribution, y []float64) float64 {
	loss := s.Loss(d, y)
	var sum float64
	for _, v := range loss {
		sum += v
	}
	return sum / float64(len(loss))
}

// Gradient returns the ordinary gradient, or the natural gradient g solving
// metric · g = grad when natural is set. All supported metrics are diagonal.
func Gradient(s Score, d Distribution, y []float64, natural bool) *mat.Dense {
	grad := s.Grad(d, y)
	if !natural {
		return grad
	}
	grad.DivElem(grad, s.Metric(d))
	return grad
}

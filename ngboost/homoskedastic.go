package ngboost

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

type homoskedasticFamily struct{}

func (homoskedasticFamily) Name() string { return "HomoskedasticNormal" }
func (homoskedasticFamily) NParams() int { return 1 }

func (homoskedasticFamily) Marginal(y []float64) ([]float64, error) {
	if err := checkMarginal("HomoskedasticNormal.Marginal", y); err != nil {
		return nil, err
	}
	mean, _ := meanStd(y)
	return []float64{mean}, nil
}

func (homoskedasticFamily) FromParams(params *mat.Dense) Distribution {
	n, c := params.Dims()
	if c != 1 {
		panic(errors.NewDimensionError("HomoskedasticNormal.FromParams", 1, c, 1))
	}
	d := &HomoskedasticNormalDist{params: params, loc: make([]float64, n), scale: make([]float64, n)}
	for i := 0; i < n; i++ {
		d.loc[i] = params.At(i, 0)
		d.scale[i] = 1
	}
	return d
}

// HomoskedasticNormalDist is a batch of N(loc, 1). It also wraps point predictions of
// models without a predictive distribution so they can be scored like one.
type HomoskedasticNormalDist struct {
	params *mat.Dense
	loc    []float64
	scale  []float64
}

// NewHomoskedasticNormal wraps point predictions; Loc() returns them unchanged.
func NewHomoskedasticNormal(loc []float64) *HomoskedasticNormalDist {
	p := mat.NewDense(len(loc), 1, append([]float64(nil), loc...))
	return HomoskedasticNormal.FromParams(p).(*HomoskedasticNormalDist)
}

func (d *HomoskedasticNormalDist) Family() Family     { return HomoskedasticNormal }
func (d *HomoskedasticNormalDist) Len() int           { return len(d.loc) }
func (d *HomoskedasticNormalDist) Params() *mat.Dense { return d.params }
func (d *HomoskedasticNormalDist) Loc() []float64     { return d.loc }
func (d *HomoskedasticNormalDist) Scale() []float64   { return d.scale }

func (d *HomoskedasticNormalDist) LogPDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = distuv.UnitNormal.LogProb(y[i] - d.loc[i])
	}
	return out
}

func (d *HomoskedasticNormalDist) CDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = distuv.UnitNormal.CDF(y[i] - d.loc[i])
	}
	return out
}

func (d *HomoskedasticNormalDist) PPF(q float64) []float64 {
	z := distuv.UnitNormal.Quantile(q)
	out := make([]float64, len(d.loc))
	for i, m := range d.loc {
		out[i] = m + z
	}
	return out
}

func (d *HomoskedasticNormalDist) CRPS(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		z := y[i] - d.loc[i]
		out[i] = z*(2*distuv.UnitNormal.CDF(z)-1) + 2*distuv.UnitNormal.Prob(z) - invSqrtPi
	}
	return out
}

func (d *HomoskedasticNormalDist) NLLGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 1, nil)
	for i := range y {
		g.Set(i, 0, d.loc[i]-y[i])
	}
	return g
}

func (d *HomoskedasticNormalDist) FisherInfo() *mat.Dense {
	m := mat.NewDense(len(d.loc), 1, nil)
	for i := range d.loc {
		m.Set(i, 0, 1)
	}
	return m
}

func (d *HomoskedasticNormalDist) CRPSGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 1, nil)
	for i := range y {
		g.Set(i, 0, -(2*distuv.UnitNormal.CDF(y[i]-d.loc[i]) - 1))
	}
	return g
}

func (d *HomoskedasticNormalDist) CRPSMetric() *mat.Dense {
	m := mat.NewDense(len(d.loc), 1, nil)
	for i := range d.loc {
		m.Set(i, 0, invSqrtPi)
	}
	return m
}

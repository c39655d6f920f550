package ngboost

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

type normalFamily struct{}

func (normalFamily) Name() string { return "Normal" }
func (normalFamily) NParams() int { return 2 }

// Marginal は最尤推定（平均と ddof=0 の標準偏差）
func (normalFamily) Marginal(y []float64) ([]float64, error) {
	if err := checkMarginal("Normal.Marginal", y); err != nil {
		return nil, err
	}
	mean, std := meanStd(y)
	if std == 0 {
		return nil, errors.NewValueError("Normal.Marginal", "y has zero variance")
	}
	return []float64{mean, math.Log(std)}, nil
}

func (normalFamily) FromParams(params *mat.Dense) Distribution {
	n, _ := params.Dims()
	d := &NormalDist{params: params, loc: make([]float64, n), scale: make([]float64, n)}
	for i := 0; i < n; i++ {
		d.loc[i] = params.At(i, 0)
		d.scale[i] = errors.StabilizeExp(params.At(i, 1))
	}
	return d
}

// NormalDist is a batch of N(loc, scale²) with internal parameters (loc, log scale).
type NormalDist struct {
	params *mat.Dense
	loc    []float64
	scale  []float64
}

// NewNormal builds a batch from locations and (positive) scales.
func NewNormal(loc, scale []float64) *NormalDist {
	p := mat.NewDense(len(loc), 2, nil)
	for i := range loc {
		p.Set(i, 0, loc[i])
		p.Set(i, 1, math.Log(scale[i]))
	}
	return Normal.FromParams(p).(*NormalDist)
}

func (d *NormalDist) Family() Family     { return Normal }
func (d *NormalDist) Len() int           { return len(d.loc) }
func (d *NormalDist) Params() *mat.Dense { return d.params }
func (d *NormalDist) Loc() []float64     { return d.loc }
func (d *NormalDist) Scale() []float64   { return d.scale }

func (d *NormalDist) dist(i int) distuv.Normal {
	return distuv.Normal{Mu: d.loc[i], Sigma: d.scale[i]}
}

func (d *NormalDist) LogPDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = d.dist(i).LogProb(y[i])
	}
	return out
}

func (d *NormalDist) CDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = d.dist(i).CDF(y[i])
	}
	return out
}

func (d *NormalDist) PPF(q float64) []float64 {
	out := make([]float64, len(d.loc))
	for i := range out {
		out[i] = d.dist(i).Quantile(q)
	}
	return out
}

// CRPS = σ [ z(2Φ(z)-1) + 2φ(z) - 1/√π ],  z = (y-μ)/σ
func (d *NormalDist) CRPS(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		z := (y[i] - d.loc[i]) / d.scale[i]
		out[i] = d.scale[i] * (z*(2*distuv.UnitNormal.CDF(z)-1) + 2*distuv.UnitNormal.Prob(z) - invSqrtPi)
	}
	return out
}

func (d *NormalDist) NLLGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 2, nil)
	for i := range y {
		v := d.scale[i] * d.scale[i]
		r := d.loc[i] - y[i]
		g.Set(i, 0, r/v)
		g.Set(i, 1, 1-r*r/v)
	}
	return g
}

// FisherInfo = diag(1/σ², 2)
func (d *NormalDist) FisherInfo() *mat.Dense {
	m := mat.NewDense(len(d.loc), 2, nil)
	for i, s := range d.scale {
		m.Set(i, 0, 1/(s*s))
		m.Set(i, 1, 2)
	}
	return m
}

func (d *NormalDist) CRPSGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 2, nil)
	for i := range y {
		z := (y[i] - d.loc[i]) / d.scale[i]
		g.Set(i, 0, -(2*distuv.UnitNormal.CDF(z) - 1))
		g.Set(i, 1, d.scale[i]*(2*distuv.UnitNormal.Prob(z)-invSqrtPi))
	}
	return g
}

// CRPSMetric = diag(2, σ²) / (2√π σ)
func (d *NormalDist) CRPSMetric() *mat.Dense {
	m := mat.NewDense(len(d.loc), 2, nil)
	for i, s := range d.scale {
		c := invSqrtPi / (2 * s)
		m.Set(i, 0, 2*c)
		m.Set(i, 1, s*s*c)
	}
	return m
}

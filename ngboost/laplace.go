package ngboost

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

type laplaceFamily struct{}

func (laplaceFamily) Name() string { return "Laplace" }
func (laplaceFamily) NParams() int { return 2 }

// Marginal は最尤推定（中央値と中央値からの平均絶対偏差）
func (laplaceFamily) Marginal(y []float64) ([]float64, error) {
	if err := checkMarginal("Laplace.Marginal", y); err != nil {
		return nil, err
	}
	m := median(y)
	var mad float64
	for _, v := range y {
		mad += math.Abs(v - m)
	}
	mad /= float64(len(y))
	if mad == 0 {
		return nil, errors.NewValueError("Laplace.Marginal", "y has zero absolute deviation")
	}
	return []float64{m, math.Log(mad)}, nil
}

func (laplaceFamily) FromParams(params *mat.Dense) Distribution {
	n, _ := params.Dims()
	d := &LaplaceDist{params: params, loc: make([]float64, n), scale: make([]float64, n)}
	for i := 0; i < n; i++ {
		d.loc[i] = params.At(i, 0)
		d.scale[i] = errors.StabilizeExp(params.At(i, 1))
	}
	return d
}

// LaplaceDist is a batch of Laplace(loc, b) with internal parameters (loc, log b).
type LaplaceDist struct {
	params *mat.Dense
	loc    []float64
	scale  []float64
}

// NewLaplace builds a batch from locations and (positive) scales.
func NewLaplace(loc, scale []float64) *LaplaceDist {
	p := mat.NewDense(len(loc), 2, nil)
	for i := range loc {
		p.Set(i, 0, loc[i])
		p.Set(i, 1, math.Log(scale[i]))
	}
	return Laplace.FromParams(p).(*LaplaceDist)
}

func (d *LaplaceDist) Family() Family     { return Laplace }
func (d *LaplaceDist) Len() int           { return len(d.loc) }
func (d *LaplaceDist) Params() *mat.Dense { return d.params }
func (d *LaplaceDist) Loc() []float64     { return d.loc }
func (d *LaplaceDist) Scale() []float64   { return d.scale }

func (d *LaplaceDist) dist(i int) distuv.Laplace {
	return distuv.Laplace{Mu: d.loc[i], Scale: d.scale[i]}
}

func (d *LaplaceDist) LogPDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = d.dist(i).LogProb(y[i])
	}
	return out
}

func (d *LaplaceDist) CDF(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = d.dist(i).CDF(y[i])
	}
	return out
}

func (d *LaplaceDist) PPF(q float64) []float64 {
	out := make([]float64, len(d.loc))
	for i := range out {
		out[i] = d.dist(i).Quantile(q)
	}
	return out
}

// CRPS = b ( |z| + e^{-|z|} - 3/4 ),  z = (y-μ)/b
func (d *LaplaceDist) CRPS(y []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		az := math.Abs(y[i]-d.loc[i]) / d.scale[i]
		out[i] = d.scale[i] * (az + math.Exp(-az) - 0.75)
	}
	return out
}

func (d *LaplaceDist) NLLGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 2, nil)
	for i := range y {
		r := y[i] - d.loc[i]
		g.Set(i, 0, -sign(r)/d.scale[i])
		g.Set(i, 1, 1-math.Abs(r)/d.scale[i])
	}
	return g
}

// FisherInfo = diag(1/b², 1)
func (d *LaplaceDist) FisherInfo() *mat.Dense {
	m := mat.NewDense(len(d.loc), 2, nil)
	for i, b := range d.scale {
		m.Set(i, 0, 1/(b*b))
		m.Set(i, 1, 1)
	}
	return m
}

func (d *LaplaceDist) CRPSGrad(y []float64) *mat.Dense {
	g := mat.NewDense(len(y), 2, nil)
	for i := range y {
		z := (y[i] - d.loc[i]) / d.scale[i]
		az := math.Abs(z)
		e := math.Exp(-az)
		g.Set(i, 0, -sign(z)*(1-e))
		g.Set(i, 1, d.scale[i]*(e*(1+az)-0.75))
	}
	return g
}

// CRPSMetric = diag(1/(2b), b/4)
func (d *LaplaceDist) CRPSMetric() *mat.Dense {
	m := mat.NewDense(len(d.loc), 2, nil)
	for i, b := range d.scale {
		m.Set(i, 0, 0.5/b)
		m.Set(i, 1, 0.25*b)
	}
	return m
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

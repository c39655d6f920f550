package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/core/parallel"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// rcond は SVD の特異値の打ち切り閾値（最大特異値に対する比）
const rcond = 1e-12

// LinearRegression は L2 正則化付き（Alpha=0 で通常の最小二乗）線形回帰モデル。
// NGBoost の linear ベースラーナーとして使う
type LinearRegression struct {
	model.BaseEstimator

	Alpha        float64
	FitIntercept bool

	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
}

// NewLinearRegression は新しい線形回帰モデルを作成する（切片あり、Alpha=0）
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{FitIntercept: true}
	for _, o := range opts {
		o(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる。
// X と y を中心化した上で、Alpha=0 なら SVD による最小ノルム最小二乗解、
// Alpha>0 なら (XᵀX + αI) w = Xᵀy を解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")
	lr.Reset()

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", lr.Alpha)
	}

	// 列平均と y の平均
	xMean := make([]float64, c)
	var yMean float64
	if lr.FitIntercept {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(r)
		}
		yMean /= float64(r)
	}

	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.Rows(r, parallelThreshold, func(i int) {
		for j := 0; j < c; j++ {
			Xc.Set(i, j, X.At(i, j)-xMean[j])
		}
		yc.SetVec(i, y.At(i, 0)-yMean)
	})

	weights := mat.NewVecDense(c, nil)
	if lr.Alpha > 0 {
		var xtx mat.Dense
		xtx.Mul(Xc.T(), Xc)
		for j := 0; j < c; j++ {
			xtx.Set(j, j, xtx.At(j, j)+lr.Alpha)
		}
		var xty mat.VecDense
		xty.MulVec(Xc.T(), yc)
		if err := weights.SolveVec(&xtx, &xty); err != nil {
			return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
		}
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
			return errors.NewModelError("LinearRegression.Fit", "SVD failed", errors.ErrSingularMatrix)
		}
		rank := svd.Rank(rcond)
		if rank == 0 {
			// 全特徴量が定数: 切片のみのモデル
			weights.Zero()
		} else {
			svd.SolveVecTo(weights, yc, rank)
		}
	}

	lr.Weights = weights
	lr.Intercept = yMean - mat.Dot(weights, mat.NewVecDense(c, xMean))
	lr.SetFitted(c)
	return nil
}

// Predict は入力データに対する予測を n×1 行列で返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.CheckPredict("LinearRegression", "Predict", X); err != nil {
		return nil, err
	}

	r, c := X.Dims()

	// y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	parallel.Rows(r, parallelThreshold, func(i int) {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	})
	return predictions, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	weights := make([]float64, lr.Weights.Len())
	for i := range weights {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

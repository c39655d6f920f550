package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	NotFitted EstimatorState = iota
	Fitted
)

// BaseEstimator は各モデルに埋め込む学習状態。
// Fit 時の特徴量数を覚えておき、予測時の入力チェックに使う
type BaseEstimator struct {
	state     EstimatorState
	nFeatures int
}

func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は nFeatures 列で学習し終えたことを記録する
func (e *BaseEstimator) SetFitted(nFeatures int) {
	e.state = Fitted
	e.nFeatures = nFeatures
}

// NFeaturesIn は Fit で見た特徴量数（未学習なら 0）
func (e *BaseEstimator) NFeaturesIn() int {
	return e.nFeatures
}

func (e *BaseEstimator) Reset() {
	e.state = NotFitted
	e.nFeatures = 0
}

// CheckPredict は予測系メソッドの入口で呼ぶ。
// 未学習なら NotFittedError、列数が違えば DimensionError を返す
func (e *BaseEstimator) CheckPredict(modelName, method string, X mat.Matrix) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	if _, c := X.Dims(); c != e.nFeatures {
		return errors.NewDimensionError(modelName+"."+method, e.nFeatures, c, 1)
	}
	return nil
}

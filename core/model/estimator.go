package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる（y は n×1 の列ベクトル）
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は点推定を返す回帰モデル。NGBoost のベースラーナーもこれを満たす
type Regressor interface {
	Fitter
	Predictor
}

// RegressorFactory は未学習の Regressor を新しく生成する。
// ブースティングの各ラウンド・各パラメータごとに呼ばれる
type RegressorFactory func() Regressor

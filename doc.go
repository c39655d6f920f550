// Package ngbench は NGBoost（自然勾配ブースティング）と点推定の勾配ブースティングを
// UCI 回帰データセット上で比較するベンチマーク群を提供する。
//
// 確率的な予測器 NGBRegressor は分布パラメータそのものをブースティングし、
// ベースラインの GradientBoostingRegressor は最小二乗で平均を当てにいく。
// 両者を同じ k-fold 分割、同じ学習データで訓練し、RMSE・NLL・CRPS・
// キャリブレーションを JSON lines に記録する。
//
// # Quick Start
//
//	go run ./examples/empirical --dataset yacht --n-est 200 --n-splits 20 \
//	    --distn Normal --score CRPS --natural --verbose
//
// ライブラリとして使う場合:
//
//	ngb := ngboost.NewNGBRegressor(
//	    ngboost.WithDist(ngboost.Normal),
//	    ngboost.WithScore(ngboost.CRPS{}),
//	    ngboost.WithNEstimators(200),
//	)
//	if err := ngb.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	forecast, err := ngb.PredDist(XTest, 0)
//
// # Packages
//
//   - datasets: UCI データセットの取得とパース（空白区切り、CSV、xlsx、xls）
//   - sklearn/modelselection: KFold、固定分割、TrainTestSplit
//   - sklearn/tree: CART 回帰木（friedman_mse / mse）
//   - sklearn/ensemble: 最小二乗 GradientBoostingRegressor
//   - linear: 最小二乗 / Ridge 線形回帰
//   - ngboost: 分布族（Normal, Laplace, HomoskedasticNormal）、スコア（MLE, CRPS）、NGBRegressor
//   - loggers: フォールドごとの評価指標と要約の記録
//   - benchmark: 1 回分のクロスバリデーション実験
//   - metrics: MSE, RMSE, MAE, R²
//   - core/model, core/parallel: 共通インターフェースと並列処理
//   - pkg/errors, pkg/log: 構造化エラーと zerolog ベースのロギング
package ngbench

// Package ensemble implements scikit-learn style ensemble regressors.
package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
	"github.com/YuminosukeSato/ngbench/sklearn/tree"
)

// GradientBoostingRegressor は最小二乗損失の勾配ブースティング回帰。
// 初期値は y の平均、各ラウンドで残差に friedman_mse の回帰木を当てはめ、
// LearningRate 倍して加算する
type GradientBoostingRegressor struct {
	model.BaseEstimator

	// Hyperparameters (scikit-learn defaults)
	NEstimators     int     // Number of boosting stages
	LearningRate    float64 // Shrinkage applied to each tree
	Subsample       float64 // Fraction of rows drawn without replacement per stage
	MaxDepth        int     // Depth of each regression tree
	MinSamplesSplit int
	MinSamplesLeaf  int
	Verbose         bool

	// Fitted state
	InitValue  float64
	Estimators []*tree.DecisionTreeRegressor
	TrainScore []float64 // training MSE after each stage (in-bag rows when Subsample < 1)

	rng *rand.Rand
}

// NewGradientBoostingRegressor creates a regressor with scikit-learn defaults.
func NewGradientBoostingRegressor() *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		NEstimators:     100,
		LearningRate:    0.1,
		Subsample:       1.0,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// WithNEstimators sets the number of boosting stages
func (g *GradientBoostingRegressor) WithNEstimators(n int) *GradientBoostingRegressor {
	g.NEstimators = n
	return g
}

// WithLearningRate sets the learning rate
func (g *GradientBoostingRegressor) WithLearningRate(lr float64) *GradientBoostingRegressor {
	g.LearningRate = lr
	return g
}

// WithSubsample sets the row fraction used per stage
func (g *GradientBoostingRegressor) WithSubsample(f float64) *GradientBoostingRegressor {
	g.Subsample = f
	return g
}

// WithMaxDepth sets the maximum depth of each tree
func (g *GradientBoostingRegressor) WithMaxDepth(d int) *GradientBoostingRegressor {
	g.MaxDepth = d
	return g
}

// WithRand sets the random source used for subsampling.
// The source is shared, so draws advance the caller's stream.
func (g *GradientBoostingRegressor) WithRand(r *rand.Rand) *GradientBoostingRegressor {
	g.rng = r
	return g
}

// WithVerbose enables per-stage progress logging
func (g *GradientBoostingRegressor) WithVerbose(v bool) *GradientBoostingRegressor {
	g.Verbose = v
	return g
}

func (g *GradientBoostingRegressor) validate() error {
	if g.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", g.LearningRate)
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", g.Subsample)
	}
	if g.MaxDepth < 1 {
		return errors.NewValidationError("max_depth", "must be at least 1", g.MaxDepth)
	}
	return nil
}

// Fit trains the ensemble on X (n×p) and y (n×1).
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")
	g.Reset()

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("GradientBoostingRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("GradientBoostingRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("GradientBoostingRegressor.Fit", 1, yCols, 1)
	}
	if err := g.validate(); err != nil {
		return err
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(1, 0))
	}

	logger := log.GetLoggerWithName("ensemble.gbr").With(log.ModelNameKey, "GradientBoostingRegressor")
	logger.Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.LearningRateKey, g.LearningRate,
	)

	target := make([]float64, rows)
	var mean float64
	for i := range target {
		target[i] = y.At(i, 0)
		mean += target[i]
	}
	mean /= float64(rows)

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = mean
	}

	g.InitValue = mean
	g.Estimators = make([]*tree.DecisionTreeRegressor, 0, g.NEstimators)
	g.TrainScore = make([]float64, 0, g.NEstimators)

	Xd := mat.DenseCopyOf(X)
	nSub := rows
	if g.Subsample < 1 {
		nSub = max(1, int(g.Subsample*float64(rows)))
	}

	for stage := 0; stage < g.NEstimators; stage++ {
		idx := g.sampleRows(rows, nSub)

		Xs := Xd
		if nSub < rows {
			Xs = mat.NewDense(len(idx), cols, nil)
			for k, i := range idx {
				Xs.SetRow(k, Xd.RawRowView(i))
			}
		}
		resid := mat.NewDense(len(idx), 1, nil)
		for k, i := range idx {
			resid.Set(k, 0, target[i]-pred[i])
		}

		est := tree.NewDecisionTreeRegressor(
			tree.WithCriterion(tree.CriterionFriedmanMSE),
			tree.WithMaxDepth(g.MaxDepth),
			tree.WithMinSamplesSplit(g.MinSamplesSplit),
			tree.WithMinSamplesLeaf(g.MinSamplesLeaf),
		)
		if err := est.Fit(Xs, resid); err != nil {
			return errors.Wrapf(err, "stage %d", stage)
		}

		step, err := est.Predict(Xd)
		if err != nil {
			return err
		}
		for i := range pred {
			pred[i] += g.LearningRate * step.At(i, 0)
		}
		g.Estimators = append(g.Estimators, est)

		var loss float64
		for _, i := range idx {
			d := target[i] - pred[i]
			loss += d * d
		}
		loss /= float64(len(idx))
		g.TrainScore = append(g.TrainScore, loss)

		if g.Verbose {
			logger.Info("Boosting stage", log.IterationKey, stage+1, log.LossKey, loss)
		}
	}

	g.SetFitted(cols)
	return nil
}

// sampleRows returns all row indices, or nSub of them drawn without replacement
// in ascending order.
func (g *GradientBoostingRegressor) sampleRows(rows, nSub int) []int {
	if nSub >= rows {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := g.rng.Perm(rows)[:nSub]
	inBag := make([]bool, rows)
	for _, i := range perm {
		inBag[i] = true
	}
	idx := make([]int, 0, nSub)
	for i, ok := range inBag {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Predict returns the ensemble prediction as an n×1 matrix.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	staged, err := g.stages(X, len(g.Estimators), nil)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(staged), 1, staged), nil
}

// StagedPredict returns the prediction after each stage; element i uses i+1 trees.
func (g *GradientBoostingRegressor) StagedPredict(X mat.Matrix) ([][]float64, error) {
	out := make([][]float64, 0, len(g.Estimators))
	_, err := g.stages(X, len(g.Estimators), func(p []float64) {
		out = append(out, append([]float64(nil), p...))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GradientBoostingRegressor) stages(X mat.Matrix, n int, each func([]float64)) ([]float64, error) {
	if err := g.CheckPredict("GradientBoostingRegressor", "Predict", X); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = g.InitValue
	}
	for _, est := range g.Estimators[:n] {
		step, err := est.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := range pred {
			pred[i] += g.LearningRate * step.At(i, 0)
		}
		if each != nil {
			each(pred)
		}
	}
	return pred, nil
}

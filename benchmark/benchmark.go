// Package benchmark runs the cross-validated comparison of NGBoost against a
// least-squares gradient boosting baseline on one UCI dataset.
//
// For every outer fold the training rows are split 80/20 into train and validation;
// NGBoost is fitted on the train part, the round with the lowest validation MSE is
// chosen, and the test fold is forecast with that many rounds. The baseline is fitted
// on the same train part with the same number of stages and learning rate. Test
// predictions of all folds are concatenated, in fold order, for the summary RMSE.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/datasets"
	"github.com/YuminosukeSato/ngbench/loggers"
	"github.com/YuminosukeSato/ngbench/metrics"
	"github.com/YuminosukeSato/ngbench/ngboost"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
	"github.com/YuminosukeSato/ngbench/sklearn/ensemble"
	"github.com/YuminosukeSato/ngbench/sklearn/modelselection"
)

// validationSize is the fraction of each training fold held out for early stopping.
const validationSize = 0.2

// Result is the outcome of a run.
type Result struct {
	RunID   string
	NFolds  int
	GBMRMSE float64
	NGBRMSE float64
	NGB     *loggers.RegressionLogger
	GBR     *loggers.RegressionLogger
}

// Option configures Run.
type Option func(*runner)

// WithLoader replaces the dataset loader built from the configuration.
func WithLoader(l *datasets.Loader) Option {
	return func(r *runner) { r.loader = l }
}

type runner struct {
	cfg    Config
	out    io.Writer
	loader *datasets.Loader
	rng    *rand.Rand
	logger log.Logger

	dist  ngboost.Family
	score ngboost.Score
	base  model.RegressorFactory
}

// Run executes the benchmark, writes progress lines to out and saves both loggers.
// Any error aborts the run before anything is saved.
func Run(ctx context.Context, cfg Config, out io.Writer, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	r := &runner{
		cfg: cfg,
		out: out,
		rng: rand.New(rand.NewPCG(cfg.Seed, 0)),
	}
	for _, o := range opts {
		o(r)
	}
	if r.loader == nil {
		lopts := []datasets.LoaderOption{datasets.WithDataDir(cfg.DataDir)}
		if cfg.Source != "" {
			lopts = append(lopts, datasets.WithSource(cfg.Dataset, cfg.Source))
		}
		r.loader = datasets.NewLoader(lopts...)
	}

	r.dist, _ = ngboost.FamilyByName(cfg.Distn)
	r.score, _ = ngboost.ScoreByName(cfg.Score)
	r.base, _ = ngboost.LearnerByName(cfg.Base)

	r.logger = log.GetLoggerWithName("benchmark").With(
		log.RunIDKey, cfg.RunID,
		log.DatasetKey, cfg.Dataset,
		log.RandomSeedKey, cfg.Seed,
	)
	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) (*Result, error) {
	cfg := r.cfg
	start := time.Now()

	ds, err := r.loader.Load(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}
	n, p := ds.Dims()

	runCfg := loggers.RunConfig{
		RunID:         cfg.RunID,
		Dataset:       cfg.Dataset,
		Distn:         cfg.Distn,
		Score:         cfg.Score,
		Base:          cfg.Base,
		Natural:       cfg.Natural,
		NEstimators:   cfg.NEstimators,
		NSplits:       cfg.NSplits,
		Reps:          cfg.Reps,
		LearningRate:  cfg.LearningRate,
		MinibatchFrac: cfg.EffectiveMinibatchFrac(),
		Seed:          cfg.Seed,
	}
	ngbLog := loggers.NewRegressionLogger(runCfg, cfg.ResultsDir)
	gbrCfg := runCfg
	gbrCfg.Distn = "GBR"
	gbrLog := loggers.NewRegressionLogger(gbrCfg, cfg.ResultsDir)

	fmt.Fprintf(r.out, "== Dataset=%s X.shape=(%d, %d) %s/%s\n", cfg.Dataset, n, p, cfg.Score, cfg.Distn)

	folds, err := modelselection.Folds(cfg.Dataset, n, cfg.NSplits)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Benchmark started",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.NFoldsKey, len(folds),
		log.DistributionKey, cfg.Distn,
		log.ScoreKey, cfg.Score,
		log.BaseLearnerKey, cfg.Base,
	)

	var yTrue, yGBM, yNGB []float64
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ngbPred, gbmPred, err := r.runFold(i+1, fold, ds, ngbLog, gbrLog)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i+1)
		}
		yTrue = append(yTrue, modelselection.TakeVec(ds.Y, fold.TestIndices).RawVector().Data...)
		yNGB = append(yNGB, ngbPred...)
		yGBM = append(yGBM, gbmPred...)
	}

	gbmRMSE, err := metrics.RMSESlice(yTrue, yGBM)
	if err != nil {
		return nil, err
	}
	ngbRMSE, err := metrics.RMSESlice(yTrue, yNGB)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.out, "== RMSE GBM=%.4f, NGB=%.4f\n", gbmRMSE, ngbRMSE)

	if err := ngbLog.Save(); err != nil {
		return nil, err
	}
	if err := gbrLog.Save(); err != nil {
		return nil, err
	}

	r.logger.Info("Benchmark finished",
		"metrics.rmse_gbm", gbmRMSE,
		"metrics.rmse_ngb", ngbRMSE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{
		RunID:   cfg.RunID,
		NFolds:  len(folds),
		GBMRMSE: gbmRMSE,
		NGBRMSE: ngbRMSE,
		NGB:     ngbLog,
		GBR:     gbrLog,
	}, nil
}

// runFold trains both models on one outer fold and returns their test predictions.
// validationCurve returns the validation MSE after every round and the 1-based round
// that minimises it. Ties go to the earliest round.
func validationCurve(staged [][]float64, yVal []float64) ([]float64, int, error) {
	if len(staged) == 0 {
		return nil, 0, errors.NewValueError("validationCurve", "no staged predictions")
	}
	mse := make([]float64, len(staged))
	for k, pred := range staged {
		var err error
		if mse[k], err = metrics.MSESlice(yVal, pred); err != nil {
			return nil, 0, err
		}
	}
	return mse, floats.MinIdx(mse) + 1, nil
}

func (r *runner) runFold(itr int, fold modelselection.Fold, ds *datasets.Dataset, ngbLog, gbrLog *loggers.RegressionLogger) (ngbPred, gbmPred []float64, err error) {
	cfg := r.cfg
	logger := r.logger.With(log.FoldKey, itr)

	XTrainAll := modelselection.TakeRows(ds.X, fold.TrainIndices)
	yTrainAll := modelselection.TakeVec(ds.Y, fold.TrainIndices)
	XTest := modelselection.TakeRows(ds.X, fold.TestIndices)
	yTest := modelselection.TakeVec(ds.Y, fold.TestIndices).RawVector().Data

	trainIdx, valIdx, err := modelselection.TrainTestSplit(len(fold.TrainIndices), validationSize, r.rng)
	if err != nil {
		return nil, nil, err
	}
	XTrain := modelselection.TakeRows(XTrainAll, trainIdx)
	yTrain := modelselection.TakeVec(yTrainAll, trainIdx)
	XVal := modelselection.TakeRows(XTrainAll, valIdx)
	yVal := modelselection.TakeVec(yTrainAll, valIdx).RawVector().Data

	// NGBoost
	ngb := ngboost.NewNGBRegressor(
		ngboost.WithDist(r.dist),
		ngboost.WithScore(r.score),
		ngboost.WithBase(r.base),
		ngboost.WithNEstimators(cfg.NEstimators),
		ngboost.WithLearningRate(cfg.LearningRate),
		ngboost.WithNaturalGradient(cfg.Natural),
		ngboost.WithMinibatchFrac(cfg.EffectiveMinibatchFrac()),
		ngboost.WithVerbose(cfg.Verbose),
		ngboost.WithRand(r.rng),
	)
	if err := ngb.Fit(XTrain, yTrain); err != nil {
		return nil, nil, err
	}

	staged, err := ngb.StagedPredict(XVal)
	if err != nil {
		return nil, nil, err
	}
	valMSE, best, err := validationCurve(staged, yVal)
	if err != nil {
		return nil, nil, err
	}
	bestMSE := valMSE[best-1]
	fmt.Fprintf(r.out, "[%d] Best itr: %d (%.4f)\n", itr, best, math.Sqrt(bestMSE))

	forecast, err := ngb.PredDist(XTest, best)
	if err != nil {
		return nil, nil, err
	}
	ngbPred = append([]float64(nil), forecast.Loc()...)

	m, err := ngbLog.Tick(forecast, yTest)
	if err != nil {
		return nil, nil, err
	}
	ngbLog.SetBestIteration(best)
	if cfg.Verbose {
		fmt.Fprintf(r.out, "[%d/%d] %s/%s RMSE=%.4f\n", itr, cfg.NSplits, cfg.Score, cfg.Distn, m.RMSE)
	}
	logger.Debug("NGBoost fold done",
		log.BestIterationKey, best,
		log.RMSEKey, m.RMSE,
		log.NLLKey, m.NLL,
	)

	if cfg.PlotDir != "" {
		path := filepath.Join(cfg.PlotDir, fmt.Sprintf("%s-%s-%s-fold%02d.png", cfg.Dataset, cfg.Score, cfg.Distn, itr))
		if err := os.MkdirAll(cfg.PlotDir, 0o755); err != nil {
			return nil, nil, errors.Wrap(err, "create plot directory")
		}
		title := fmt.Sprintf("%s %s/%s fold %d", cfg.Dataset, cfg.Score, cfg.Distn, itr)
		// gonum/plot は退化した軸範囲で panic することがある
		err := errors.SafeExecute("SaveValidationCurve", func() error {
			return SaveValidationCurve(path, title, valMSE, best)
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "save validation curve")
		}
	}

	// Baseline
	gbr := ensemble.NewGradientBoostingRegressor().
		WithNEstimators(cfg.NEstimators).
		WithLearningRate(cfg.LearningRate).
		WithSubsample(cfg.EffectiveMinibatchFrac()).
		WithRand(r.rng).
		WithVerbose(cfg.Verbose)
	if err := gbr.Fit(XTrain, yTrain); err != nil {
		return nil, nil, err
	}
	pred, err := gbr.Predict(XTest)
	if err != nil {
		return nil, nil, err
	}
	gbmPred = mat.Col(nil, 0, pred)

	gm, err := gbrLog.Tick(ngboost.NewHomoskedasticNormal(gbmPred), yTest)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Verbose {
		fmt.Fprintf(r.out, "[%d/%d] GBM RMSE=%.4f\n", itr, cfg.NSplits, gm.RMSE)
	}
	logger.Debug("Baseline fold done", log.RMSEKey, gm.RMSE)

	return ngbPred, gbmPred, nil
}

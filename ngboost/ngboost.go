// Package ngboost implements natural gradient boosting for probabilistic regression.
//
// NGBRegressor boosts every parameter of a predictive distribution at once: each round
// fits one base learner per internal parameter to the (natural) gradient of a scoring
// rule, finds a step scale by line search and moves all parameters together.
// Predictions are full distributions (PredDist), their locations (Predict) or the
// locations after every round (StagedPredict) for validation-based early stopping.
package ngboost

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
)

const (
	// maxScale bounds the doubling phase of the line search.
	maxScale = 256.0
	// maxStepNorm is the largest mean step norm accepted by the halving phase.
	maxStepNorm = 5.0
	// maxHalvings stops the halving phase on scores that never improve.
	maxHalvings = 64
)

// NGBRegressor is a natural gradient boosting regressor.
type NGBRegressor struct {
	model.BaseEstimator

	Dist            Family
	Score           Score
	Base            model.RegressorFactory
	NEstimators     int
	LearningRate    float64
	NaturalGradient bool
	MinibatchFrac   float64
	Tol             float64
	Verbose         bool
	VerboseEval     int

	// Fitted state
	InitParams []float64
	BaseModels [][]model.Regressor // one slice of NParams learners per round
	Scalings   []float64
	TrainLoss  []float64
	ValLoss    []float64

	rng *rand.Rand
}

// NewNGBRegressor creates a regressor with the defaults of the reference NGBoost
// package: Normal/MLE, tree learner, 500 rounds, learning rate 0.01, natural gradient.
func NewNGBRegressor(opts ...Option) *NGBRegressor {
	n := &NGBRegressor{
		Dist:            Normal,
		Score:           MLE{},
		Base:            DefaultTreeLearner,
		NEstimators:     500,
		LearningRate:    0.01,
		NaturalGradient: true,
		MinibatchFrac:   1.0,
		Tol:             1e-4,
		VerboseEval:     100,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *NGBRegressor) validate() error {
	switch {
	case n.Dist == nil:
		return errors.NewValidationError("distn", "must be set", nil)
	case n.Score == nil:
		return errors.NewValidationError("score", "must be set", nil)
	case n.Base == nil:
		return errors.NewValidationError("base", "must be set", nil)
	case n.NEstimators < 1:
		return errors.NewValidationError("n_estimators", "must be at least 1", n.NEstimators)
	case n.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", n.LearningRate)
	case n.MinibatchFrac <= 0 || n.MinibatchFrac > 1:
		return errors.NewValidationError("minibatch_frac", "must be in (0, 1]", n.MinibatchFrac)
	case n.Tol < 0:
		return errors.NewValidationError("tol", "must be non-negative", n.Tol)
	}
	return nil
}

// Fit trains on X (n×p) and y (n×1) without a validation set.
func (n *NGBRegressor) Fit(X, y mat.Matrix) error {
	_, _, err := n.FitWithValidation(X, y, nil, nil)
	return err
}

// FitWithValidation trains on (X, y) and, when XVal is non-nil, tracks the validation
// loss after every round. It returns the training loss of each round's minibatch
// (before the step) and the validation losses (after the step).
func (n *NGBRegressor) FitWithValidation(X, y, XVal, yVal mat.Matrix) (trainLoss, valLoss []float64, err error) {
	defer errors.Recover(&err, "NGBRegressor.Fit")
	n.Reset()

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil, errors.NewModelError("NGBRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return nil, nil, errors.NewDimensionError("NGBRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, errors.NewDimensionError("NGBRegressor.Fit", 1, yCols, 1)
	}
	if err := n.validate(); err != nil {
		return nil, nil, err
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewPCG(1, 0))
	}

	logger := log.GetLoggerWithName("ngboost").With(
		log.ModelNameKey, "NGBRegressor",
		log.DistributionKey, n.Dist.Name(),
		log.ScoreKey, n.Score.Name(),
	)
	logger.Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.LearningRateKey, n.LearningRate,
	)

	Xd := mat.DenseCopyOf(X)
	yv := mat.Col(nil, 0, y)

	var Xv *mat.Dense
	var yvVal []float64
	if XVal != nil {
		vr, vc := XVal.Dims()
		if vc != cols {
			return nil, nil, errors.NewDimensionError("NGBRegressor.Fit", cols, vc, 1)
		}
		if r, _ := yVal.Dims(); r != vr {
			return nil, nil, errors.NewDimensionError("NGBRegressor.Fit", vr, r, 0)
		}
		Xv = mat.DenseCopyOf(XVal)
		yvVal = mat.Col(nil, 0, yVal)
	}

	init, err := n.Dist.Marginal(yv)
	if err != nil {
		return nil, nil, err
	}
	n.InitParams = init
	n.BaseModels = n.BaseModels[:0]
	n.Scalings = n.Scalings[:0]
	n.TrainLoss = make([]float64, 0, n.NEstimators)
	n.ValLoss = nil

	k := n.Dist.NParams()
	params := constParams(rows, init)
	var valParams *mat.Dense
	if Xv != nil {
		vr, _ := Xv.Dims()
		valParams = constParams(vr, init)
		n.ValLoss = make([]float64, 0, n.NEstimators)
	}

	for itr := 0; itr < n.NEstimators; itr++ {
		idx := n.sample(rows)
		Xb := takeRows(Xd, idx)
		Pb := takeRows(params, idx)
		yb := make([]float64, len(idx))
		for j, i := range idx {
			yb[j] = yv[i]
		}

		D := n.Dist.FromParams(Pb)
		loss := TotalScore(n.Score, D, yb)
		if err := errors.CheckScalar("NGBRegressor.Fit", loss, itr); err != nil {
			return nil, nil, err
		}
		n.TrainLoss = append(n.TrainLoss, loss)

		grads := Gradient(n.Score, D, yb, n.NaturalGradient)

		learners := make([]model.Regressor, k)
		projGrad := mat.NewDense(len(idx), k, nil)
		for j := 0; j < k; j++ {
			m := n.Base()
			if err := m.Fit(Xb, grads.ColView(j)); err != nil {
				return nil, nil, errors.Wrapf(err, "base learner for parameter %d at round %d", j, itr)
			}
			p, err := m.Predict(Xb)
			if err != nil {
				return nil, nil, err
			}
			projGrad.SetCol(j, mat.Col(nil, 0, p))
			learners[j] = m
		}

		scale, err := n.lineSearch(projGrad, Pb, yb, loss, itr)
		if err != nil {
			return nil, nil, err
		}
		n.BaseModels = append(n.BaseModels, learners)
		n.Scalings = append(n.Scalings, scale)

		if err := n.step(params, Xd, learners, scale); err != nil {
			return nil, nil, err
		}
		if valParams != nil {
			if err := n.step(valParams, Xv, learners, scale); err != nil {
				return nil, nil, err
			}
			n.ValLoss = append(n.ValLoss, TotalScore(n.Score, n.Dist.FromParams(valParams), yvVal))
		}

		gradNorm := meanRowNorm(projGrad)
		if n.Verbose && n.VerboseEval > 0 && itr%n.VerboseEval == 0 {
			fields := []any{
				log.IterationKey, itr,
				log.LossKey, loss,
				log.ScaleKey, scale,
				"training.grad_norm", gradNorm,
			}
			if valParams != nil {
				fields = append(fields, log.ValLossKey, n.ValLoss[len(n.ValLoss)-1])
			}
			logger.Info("Boosting round", fields...)
		}

		if gradNorm < n.Tol {
			logger.Debug("Converged", log.IterationKey, itr+1, "training.grad_norm", gradNorm)
			break
		}
	}

	n.SetFitted(cols)
	return n.TrainLoss, n.ValLoss, nil
}

// sample returns the row indices of this round's minibatch.
func (n *NGBRegressor) sample(rows int) []int {
	if n.MinibatchFrac >= 1 {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	size := max(1, int(n.MinibatchFrac*float64(rows)))
	return n.rng.Perm(rows)[:size]
}

// lineSearch doubles the scale while the loss does not increase (up to maxScale), then
// halves it until the loss improves on initLoss, or the step becomes negligible, and
// the mean step norm is below maxStepNorm.
func (n *NGBRegressor) lineSearch(resids, start *mat.Dense, y []float64, initLoss float64, itr int) (float64, error) {
	lossAt := func(scale float64) (float64, float64) {
		var p mat.Dense
		p.Scale(scale, resids)
		norm := meanRowNorm(&p)
		p.Sub(start, &p)
		return TotalScore(n.Score, n.Dist.FromParams(&p), y), norm
	}

	scale := 1.0
	for {
		loss, _ := lossAt(scale)
		if math.IsNaN(loss) || math.IsInf(loss, 0) || loss > initLoss || scale > maxScale {
			break
		}
		scale *= 2
	}

	for h := 0; ; h++ {
		loss, norm := lossAt(scale)
		if math.IsNaN(norm) {
			return 0, errors.NewNumericalInstabilityError("NGBRegressor.lineSearch", []float64{norm}, itr)
		}
		finite := !math.IsNaN(loss) && !math.IsInf(loss, 0)
		if finite && (loss < initLoss || norm < n.Tol) && norm < maxStepNorm {
			break
		}
		if h >= maxHalvings {
			errors.Warn(errors.NewConvergenceWarning("NGBRegressor.lineSearch", h,
				"no step size improved the score"))
			break
		}
		scale *= 0.5
	}
	return scale, nil
}

// step applies params -= lr·scale·f(X) for the learners of one round.
func (n *NGBRegressor) step(params *mat.Dense, X *mat.Dense, learners []model.Regressor, scale float64) error {
	for j, m := range learners {
		p, err := m.Predict(X)
		if err != nil {
			return err
		}
		rows, _ := params.Dims()
		for i := 0; i < rows; i++ {
			params.Set(i, j, params.At(i, j)-n.LearningRate*scale*p.At(i, 0))
		}
	}
	return nil
}

func (n *NGBRegressor) checkPredict(X mat.Matrix, method string) error {
	return n.CheckPredict("NGBRegressor", method, X)
}

// NRounds is the number of boosting rounds actually fitted.
func (n *NGBRegressor) NRounds() int {
	return len(n.BaseModels)
}

// PredDist returns the predictive distributions using the first maxIter rounds;
// maxIter <= 0 or beyond the fitted rounds uses all of them.
func (n *NGBRegressor) PredDist(X mat.Matrix, maxIter int) (Distribution, error) {
	if err := n.checkPredict(X, "PredDist"); err != nil {
		return nil, err
	}
	if maxIter <= 0 || maxIter > len(n.BaseModels) {
		maxIter = len(n.BaseModels)
	}
	Xd := mat.DenseCopyOf(X)
	rows, _ := Xd.Dims()
	params := constParams(rows, n.InitParams)
	for r := 0; r < maxIter; r++ {
		if err := n.step(params, Xd, n.BaseModels[r], n.Scalings[r]); err != nil {
			return nil, err
		}
	}
	return n.Dist.FromParams(params), nil
}

// StagedPredDist returns the distributions after every round; element i uses i+1 rounds.
func (n *NGBRegressor) StagedPredDist(X mat.Matrix) ([]Distribution, error) {
	if err := n.checkPredict(X, "StagedPredDist"); err != nil {
		return nil, err
	}
	Xd := mat.DenseCopyOf(X)
	rows, _ := Xd.Dims()
	params := constParams(rows, n.InitParams)
	out := make([]Distribution, 0, len(n.BaseModels))
	for r := range n.BaseModels {
		if err := n.step(params, Xd, n.BaseModels[r], n.Scalings[r]); err != nil {
			return nil, err
		}
		out = append(out, n.Dist.FromParams(mat.DenseCopyOf(params)))
	}
	return out, nil
}

// StagedPredict returns the predicted locations after every round.
func (n *NGBRegressor) StagedPredict(X mat.Matrix) ([][]float64, error) {
	dists, err := n.StagedPredDist(X)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(dists))
	for i, d := range dists {
		out[i] = d.Loc()
	}
	return out, nil
}

// Predict returns the locations of the full model as an n×1 matrix.
func (n *NGBRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	d, err := n.PredDist(X, 0)
	if err != nil {
		return nil, err
	}
	loc := d.Loc()
	return mat.NewDense(len(loc), 1, append([]float64(nil), loc...)), nil
}

// BestIteration returns the 1-based round whose staged prediction has the lowest MSE
// against y, and that MSE. Ties resolve to the earliest round.
func BestIteration(staged [][]float64, y []float64) (int, float64, error) {
	if len(staged) == 0 {
		return 0, 0, errors.NewValueError("BestIteration", "no staged predictions")
	}
	best, bestMSE := 0, math.Inf(1)
	for i, pred := range staged {
		if len(pred) != len(y) {
			return 0, 0, errors.NewDimensionError("BestIteration", len(y), len(pred), 0)
		}
		mse := floats.Distance(pred, y, 2)
		mse = mse * mse / float64(len(y))
		if mse < bestMSE {
			best, bestMSE = i, mse
		}
	}
	return best + 1, bestMSE, nil
}

func takeRows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for k, i := range idx {
		out.SetRow(k, m.RawRowView(i))
	}
	return out
}

// meanRowNorm is the mean Euclidean norm of the rows of m.
func meanRowNorm(m *mat.Dense) float64 {
	r, _ := m.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		sum += floats.Norm(m.RawRowView(i), 2)
	}
	return sum / float64(r)
}

package ngboost

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/ngbench/core/model"
)

// Option configures an NGBRegressor.
type Option func(*NGBRegressor)

// WithDist sets the predictive distribution family.
func WithDist(f Family) Option {
	return func(n *NGBRegressor) { n.Dist = f }
}

// WithScore sets the scoring rule minimized by boosting.
func WithScore(s Score) Option {
	return func(n *NGBRegressor) { n.Score = s }
}

// WithBase sets the factory of base learners (one learner per parameter per round).
func WithBase(f model.RegressorFactory) Option {
	return func(n *NGBRegressor) { n.Base = f }
}

// WithNEstimators sets the number of boosting rounds.
func WithNEstimators(k int) Option {
	return func(n *NGBRegressor) { n.NEstimators = k }
}

// WithLearningRate sets the shrinkage of every step.
func WithLearningRate(lr float64) Option {
	return func(n *NGBRegressor) { n.LearningRate = lr }
}

// WithNaturalGradient toggles the natural gradient.
func WithNaturalGradient(natural bool) Option {
	return func(n *NGBRegressor) { n.NaturalGradient = natural }
}

// WithMinibatchFrac sets the fraction of rows sampled without replacement per round.
func WithMinibatchFrac(f float64) Option {
	return func(n *NGBRegressor) { n.MinibatchFrac = f }
}

// WithTol sets the mean gradient norm below which training stops.
func WithTol(tol float64) Option {
	return func(n *NGBRegressor) { n.Tol = tol }
}

// WithVerbose enables progress logging every VerboseEval rounds.
func WithVerbose(v bool) Option {
	return func(n *NGBRegressor) { n.Verbose = v }
}

// WithVerboseEval sets how often progress is logged when verbose.
func WithVerboseEval(every int) Option {
	return func(n *NGBRegressor) { n.VerboseEval = every }
}

// WithRand sets the random source for minibatch sampling. The source is shared with
// the caller, so every draw advances its stream.
func WithRand(r *rand.Rand) Option {
	return func(n *NGBRegressor) { n.rng = r }
}
